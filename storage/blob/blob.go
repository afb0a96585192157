// Package blob stores the files attached to learning materials.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/trezcool/classportal/core"
)

const (
	DriverFilesystem = "fs"
	DriverS3         = "s3"
	DriverMemory     = "memory"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrUnsupported = errors.New("blob: unsupported operation")
)

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a minimal S3-like file store. Put replaces an existing blob.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get returns ErrNotFound if key is missing. The caller closes the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete reports whether a blob was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns the blobs under prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a time-limited download URL, or ErrUnsupported.
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Driver() string
}

// Open returns the blob store named by conf.Driver.
func Open(ctx context.Context, conf core.BlobConfig) (Store, error) {
	switch conf.Driver {
	case DriverFilesystem, "":
		return NewFS(conf.Root)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    conf.S3Bucket,
			Region:    conf.S3Region,
			Endpoint:  conf.S3Endpoint,
			PathStyle: conf.S3PathStyle,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
		})
	}
	return nil, fmt.Errorf("unknown blob driver %q", conf.Driver)
}

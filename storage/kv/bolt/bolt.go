// Package bolt stores slots as keys of a single bbolt bucket.
package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/classportal/core/store"
)

var slotsBucket = []byte("slots")

type Storage struct {
	db *bbolt.DB
}

var _ store.Storage = (*Storage)(nil)

// Open opens (creating if needed) the bbolt file at path.
func Open(path string) (*Storage, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(path, "path"),
	).Check(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrap(err, "creating storage directory")
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt file %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating slots bucket")
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Get(_ context.Context, slot string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(slotsBucket).Get([]byte(slot))
		if v == nil {
			return store.ErrSlotNotFound
		}
		// v is only valid for the life of the transaction
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, err
}

func (s *Storage) Set(_ context.Context, slot string, payload []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(slot), payload)
	})
}

func (s *Storage) Delete(_ context.Context, slot string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(slotsBucket).Delete([]byte(slot))
	})
}

// Slots returns the slot names in key order, which bbolt keeps sorted.
func (s *Storage) Slots(_ context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(slotsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (s *Storage) Close() error { return s.db.Close() }

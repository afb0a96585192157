// Package material publishes learning materials and keeps every uploaded version of their files.
//
// Deleting a material removes its versions and files. Other domains that reference it
// (assignments listing material ids) are left untouched.
package material

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
	"github.com/trezcool/classportal/storage/blob"
)

const (
	Slot         = "materials"
	VersionsSlot = "material_versions"
)

var (
	// errors
	ErrNotFound        = errors.New("material not found")
	ErrVersionNotFound = errors.New("material version not found")
	ErrNoFile          = errors.New("a file is required for this kind of material")
)

type Service struct {
	materials *store.Collection[Material]
	versions  *store.Collection[history]
	blobs     blob.Store
	logger    core.Logger
	nowFunc   func() time.Time // mockable

	// serializes version numbering and the versions entry of each material
	versionsMu sync.Mutex
}

func NewService(storage store.Storage, blobs blob.Store, logger core.Logger) *Service {
	return &Service{
		materials: store.NewCollection[Material](storage, Slot, materialKey),
		versions:  store.NewCollection[history](storage, VersionsSlot, historyKey, store.WithClone(cloneHistory)),
		blobs:     blobs,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	if err := svc.materials.Load(ctx); err != nil {
		return err
	}
	return svc.versions.Load(ctx)
}

// Upload publishes a material. Links carry a URL and no file; every other kind starts at version 1 of file.
func (svc *Service) Upload(ctx context.Context, nm NewMaterial, file *File) (Material, error) {
	if err := nm.Validate(); err != nil {
		return Material{}, err
	}
	now := svc.nowFunc().UTC()
	m := Material{
		Title:       nm.Title,
		Description: nm.Description,
		Subject:     nm.Subject,
		Kind:        nm.Kind,
		URL:         nm.URL,
		UploadedBy:  nm.UploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if file == nil {
		if nm.Kind != KindLink {
			return Material{}, core.NewValidationError(ErrNoFile, core.FieldError{Field: "file", Error: ErrNoFile.Error()})
		}
		added, err := svc.materials.Add(ctx, m)
		return added, pkgerrors.Wrap(err, "adding material")
	}

	svc.versionsMu.Lock()
	defer svc.versionsMu.Unlock()

	ver, err := svc.putVersion(ctx, file, 1, nm.Note, nm.UploadedBy)
	if err != nil {
		return Material{}, err
	}
	m.CurrentVersion = 1
	m, err = svc.materials.Add(ctx, m)
	if err != nil {
		svc.dropBlob(ctx, ver.BlobKey)
		return Material{}, pkgerrors.Wrap(err, "adding material")
	}
	if _, err := svc.versions.Add(ctx, history{MaterialID: m.ID, Versions: []Version{ver}}); err != nil {
		return m, pkgerrors.Wrap(err, "adding material versions")
	}
	return m, nil
}

// AddVersion uploads a new file version and makes it the current one.
func (svc *Service) AddVersion(ctx context.Context, materialID string, file *File, note, uploadedBy string) (Version, error) {
	if file == nil {
		return Version{}, core.NewValidationError(ErrNoFile, core.FieldError{Field: "file", Error: ErrNoFile.Error()})
	}
	svc.versionsMu.Lock()
	defer svc.versionsMu.Unlock()

	m, err := svc.Get(materialID)
	if err != nil {
		return Version{}, err
	}
	if m.Kind == KindLink {
		return Version{}, core.NewValidationError(nil, core.FieldError{Field: "kind", Error: "links have no file versions"})
	}

	ver, err := svc.putVersion(ctx, file, m.CurrentVersion+1, core.CleanString(note), core.CleanString(uploadedBy))
	if err != nil {
		return Version{}, err
	}
	h, ok := svc.versions.Find(func(h history) bool { return h.MaterialID == materialID })
	if ok {
		_, err = svc.versions.Update(ctx, h.ID, func(h *history) { h.Versions = append(h.Versions, ver) })
	} else {
		_, err = svc.versions.Add(ctx, history{MaterialID: materialID, Versions: []Version{ver}})
	}
	if err != nil {
		svc.dropBlob(ctx, ver.BlobKey)
		return Version{}, pkgerrors.Wrap(err, "adding material version")
	}
	if _, err := svc.materials.Update(ctx, materialID, func(m *Material) {
		m.CurrentVersion = ver.Number
		m.UpdatedAt = ver.UploadedAt
	}); err != nil {
		return Version{}, pkgerrors.Wrap(err, "updating material")
	}
	return ver, nil
}

func (svc *Service) putVersion(ctx context.Context, file *File, number int, note, uploadedBy string) (Version, error) {
	if err := file.Validate(); err != nil {
		return Version{}, err
	}
	key := fmt.Sprintf("materials/%s/v%d%s", core.NewID(), number, strings.ToLower(path.Ext(file.Filename)))
	info, err := svc.blobs.Put(ctx, key, file.Body, file.ContentType)
	if err != nil {
		return Version{}, pkgerrors.Wrap(err, "storing material file")
	}
	return Version{
		Number:      number,
		BlobKey:     info.Key,
		Filename:    path.Base(strings.ReplaceAll(file.Filename, "\\", "/")),
		Size:        info.Size,
		ContentType: file.ContentType,
		Note:        note,
		UploadedBy:  uploadedBy,
		UploadedAt:  svc.nowFunc().UTC(),
	}, nil
}

func (svc *Service) dropBlob(ctx context.Context, key string) {
	if _, err := svc.blobs.Delete(ctx, key); err != nil {
		svc.logger.Error("dropping material file", err, map[string]interface{}{"key": key})
	}
}

// Versions returns the versions of a material, oldest first.
func (svc *Service) Versions(materialID string) []Version {
	h, ok := svc.versions.Find(func(h history) bool { return h.MaterialID == materialID })
	if !ok {
		return []Version{}
	}
	sort.SliceStable(h.Versions, func(i, j int) bool { return h.Versions[i].Number < h.Versions[j].Number })
	return h.Versions
}

// Version returns a version of a material; number 0 is the current version.
func (svc *Service) Version(materialID string, number int) (Version, error) {
	m, err := svc.Get(materialID)
	if err != nil {
		return Version{}, err
	}
	if number == 0 {
		number = m.CurrentVersion
	}
	for _, v := range svc.Versions(materialID) {
		if v.Number == number {
			return v, nil
		}
	}
	return Version{}, ErrVersionNotFound
}

// Open returns the file of a version (0 for the current one) and counts a download.
// The caller closes the reader.
func (svc *Service) Open(ctx context.Context, materialID string, number int) (Version, io.ReadCloser, error) {
	v, err := svc.Version(materialID, number)
	if err != nil {
		return Version{}, nil, err
	}
	_, rc, err := svc.blobs.Get(ctx, v.BlobKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Version{}, nil, ErrVersionNotFound
		}
		return Version{}, nil, pkgerrors.Wrap(err, "reading material file")
	}
	if _, err := svc.materials.Update(ctx, materialID, func(m *Material) { m.Downloads++ }); err != nil {
		_ = rc.Close()
		return Version{}, nil, pkgerrors.Wrap(err, "counting download")
	}
	return v, rc, nil
}

// DownloadURL returns a time-limited URL to a version, when the blob store can sign one.
func (svc *Service) DownloadURL(ctx context.Context, materialID string, number int, expiry time.Duration) (string, error) {
	v, err := svc.Version(materialID, number)
	if err != nil {
		return "", err
	}
	return svc.blobs.PresignURL(ctx, v.BlobKey, expiry)
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	if err := um.Validate(); err != nil {
		return Material{}, err
	}
	if um.IsEmpty() {
		return svc.Get(id)
	}
	m, err := svc.materials.Update(ctx, id, func(m *Material) {
		if um.Title != nil {
			m.Title = *um.Title
		}
		if um.Description != nil {
			m.Description = *um.Description
		}
		if um.Subject != nil {
			m.Subject = *um.Subject
		}
		m.UpdatedAt = svc.nowFunc().UTC()
	})
	if err != nil {
		if err == store.ErrNotFound {
			return Material{}, ErrNotFound
		}
		return Material{}, pkgerrors.Wrap(err, "updating material")
	}
	return m, nil
}

// Delete removes a material, its versions and their files.
func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	svc.versionsMu.Lock()
	defer svc.versionsMu.Unlock()

	ok, err := svc.materials.Delete(ctx, id)
	if err != nil || !ok {
		return false, pkgerrors.Wrap(err, "deleting material")
	}
	versions := svc.Versions(id)
	if _, err := svc.versions.DeleteWhere(ctx, func(h history) bool { return h.MaterialID == id }); err != nil {
		return true, pkgerrors.Wrap(err, "deleting material versions")
	}
	for _, v := range versions {
		svc.dropBlob(ctx, v.BlobKey)
	}
	return true, nil
}

func (svc *Service) Get(id string) (Material, error) {
	m, err := svc.materials.Get(id)
	if err != nil {
		return Material{}, ErrNotFound
	}
	return m, nil
}

// List returns every material, newest first.
func (svc *Service) List() []Material {
	return newestFirst(svc.materials.All())
}

func (svc *Service) BySubject(subject string) []Material {
	return newestFirst(svc.materials.Filter(func(m Material) bool { return m.Subject == subject }))
}

// Search does a case-insensitive match of text on the title and description.
func (svc *Service) Search(text string) []Material {
	text = strings.ToLower(core.CleanString(text))
	return newestFirst(svc.materials.Filter(func(m Material) bool {
		return strings.Contains(strings.ToLower(m.Title), text) || strings.Contains(strings.ToLower(m.Description), text)
	}))
}

func newestFirst(ms []Material) []Material {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].CreatedAt.After(ms[j].CreatedAt) })
	return ms
}

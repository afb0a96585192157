package material

import (
	"io"
	"time"

	"github.com/trezcool/classportal/core"
)

// Kinds
const (
	KindDocument = "document"
	KindVideo    = "video"
	KindLink     = "link"
	KindOther    = "other"
)

type Material struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Subject        string    `json:"subject"`
	Kind           string    `json:"kind"`
	URL            string    `json:"url,omitempty"` // links only
	UploadedBy     string    `json:"uploaded_by"`
	CurrentVersion int       `json:"current_version"` // 0 for links
	Downloads      int       `json:"downloads"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func materialKey(m *Material) *string { return &m.ID }

type Version struct {
	Number      int       `json:"number"`
	BlobKey     string    `json:"blob_key"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Note        string    `json:"note"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// history is the version list of one material.
type history struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	Versions   []Version `json:"versions"`
}

func historyKey(h *history) *string { return &h.ID }

func cloneHistory(h history) history {
	h.Versions = append([]Version(nil), h.Versions...)
	return h
}

// File is an uploaded file. Body is read once.
type File struct {
	Filename    string    `json:"filename" validate:"required"`
	ContentType string    `json:"content_type"`
	Body        io.Reader `json:"-" validate:"required"`
}

func (f *File) Validate() error {
	f.Filename = core.CleanString(f.Filename)
	f.ContentType = core.CleanString(f.ContentType, true /* lower */)
	if f.ContentType == "" {
		f.ContentType = "application/octet-stream"
	}
	return core.Validate.Struct(f)
}

// NewMaterial contains information needed to publish a Material.
type NewMaterial struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Kind        string `json:"kind" validate:"required,oneof=document video link other"`
	URL         string `json:"url" validate:"omitempty,url"`
	UploadedBy  string `json:"uploaded_by" validate:"required"`
	Note        string `json:"note"`
}

func (nm *NewMaterial) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.Subject = core.CleanString(nm.Subject)
	nm.URL = core.CleanString(nm.URL)
	nm.UploadedBy = core.CleanString(nm.UploadedBy)
	nm.Note = core.CleanString(nm.Note)
	if nm.Kind = core.CleanString(nm.Kind, true /* lower */); nm.Kind == "" {
		nm.Kind = KindDocument
	}
	if err := core.Validate.Struct(nm); err != nil {
		return err
	}
	if nm.Kind == KindLink && nm.URL == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "url", Error: "this field is required"})
	}
	return nil
}

// UpdateMaterial changes the fields that are set.
type UpdateMaterial struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
}

func (um *UpdateMaterial) Validate() error {
	if um.Description != nil {
		*um.Description = core.CleanString(*um.Description)
	}
	if um.Subject != nil {
		*um.Subject = core.CleanString(*um.Subject)
	}
	if um.Title != nil {
		if *um.Title = core.CleanString(*um.Title); *um.Title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	return nil
}

func (um UpdateMaterial) IsEmpty() bool {
	return um.Title == nil && um.Description == nil && um.Subject == nil
}

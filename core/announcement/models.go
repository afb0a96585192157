package announcement

import (
	"time"

	"github.com/trezcool/classportal/core"
)

// Audiences
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
)

var Audiences = []string{AudienceAll, AudienceStudents, AudienceTeachers}

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Audience  string    `json:"audience"`
	Pinned    bool      `json:"pinned"`
	PostedAt  time.Time `json:"posted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func announcementKey(a *Announcement) *string { return &a.ID }

// NewAnnouncement contains information needed to post an Announcement.
type NewAnnouncement struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	AuthorID string `json:"author_id"`
	Audience string `json:"audience" validate:"required,oneof=all students teachers"`
	Pinned   bool   `json:"pinned"`
	Notify   bool   `json:"notify"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.AuthorID = core.CleanString(na.AuthorID)
	if na.Audience = core.CleanString(na.Audience, true /* lower */); na.Audience == "" {
		na.Audience = AudienceAll
	}
	return core.Validate.Struct(na)
}

// UpdateAnnouncement defines what may change on an Announcement. Unset fields are left unchanged.
type UpdateAnnouncement struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Audience *string `json:"audience"`
	Pinned   *bool   `json:"pinned"`
}

func (ua *UpdateAnnouncement) Validate() error {
	flds := make([]core.FieldError, 0)
	check := func(s *string, field string, lower bool) {
		if s == nil {
			return
		}
		if *s = core.CleanString(*s, lower); *s == "" {
			flds = append(flds, core.FieldError{Field: field, Error: "this field cannot be blank"})
		}
	}
	check(ua.Title, "title", false)
	check(ua.Content, "content", false)
	check(ua.Audience, "audience", true)
	if ua.Audience != nil && *ua.Audience != "" && !core.ContainsString(Audiences, *ua.Audience) {
		flds = append(flds, core.FieldError{Field: "audience", Error: "invalid audience"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (ua UpdateAnnouncement) IsEmpty() bool {
	return ua.Title == nil && ua.Content == nil && ua.Audience == nil && ua.Pinned == nil
}

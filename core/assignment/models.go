package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classportal/core"
)

// Submission statuses
const (
	StatusSubmitted = "submitted"
	StatusLate      = "late"
	StatusGraded    = "graded"
)

type Attachment struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

type Assignment struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Subject     string       `json:"subject"`
	DueAt       time.Time    `json:"due_at"`    // UTC
	PostedAt    time.Time    `json:"posted_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"`
	Attachments []Attachment `json:"attachments"`
	MaterialIDs []string     `json:"material_ids"` // soft references to material.Material
	CreatedBy   string       `json:"created_by"`
}

func assignmentKey(a *Assignment) *string { return &a.ID }

func cloneAssignment(a Assignment) Assignment {
	a.Attachments = append([]Attachment(nil), a.Attachments...)
	a.MaterialIDs = append([]string(nil), a.MaterialIDs...)
	return a
}

// IsPastDue reports whether t is after the due date.
func (a Assignment) IsPastDue(t time.Time) bool {
	return t.After(a.DueAt)
}

type Submission struct {
	ID           string       `json:"id"`
	AssignmentID string       `json:"assignment_id"` // soft reference
	UserID       string       `json:"user_id"`       // soft reference
	SubmittedAt  time.Time    `json:"submitted_at"`
	Files        []Attachment `json:"files"`
	Note         string       `json:"note"`
	Status       string       `json:"status"`
	Score        null.Float64 `json:"score"`
	Feedback     string       `json:"feedback"`
	GradedAt     null.Time    `json:"graded_at"`
}

func submissionKey(s *Submission) *string { return &s.ID }

func cloneSubmission(s Submission) Submission {
	s.Files = append([]Attachment(nil), s.Files...)
	return s
}

func (s Submission) IsGraded() bool { return s.Status == StatusGraded && s.Score.Valid }

// NewAssignment contains information needed to create an Assignment.
type NewAssignment struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	Subject     string       `json:"subject" validate:"required"`
	DueAt       time.Time    `json:"due_at" validate:"required"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
	MaterialIDs []string     `json:"material_ids"`
	CreatedBy   string       `json:"created_by"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	na.MaterialIDs = core.CleanStrings(na.MaterialIDs)
	na.Attachments = cleanAttachments(na.Attachments)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an Assignment.
// Unset fields are left unchanged.
type UpdateAssignment struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Subject     *string       `json:"subject"`
	DueAt       *time.Time    `json:"due_at"`
	Attachments *[]Attachment `json:"attachments"`
	MaterialIDs *[]string     `json:"material_ids"`
}

func (ua *UpdateAssignment) Validate() error {
	flds := make([]core.FieldError, 0)
	if ua.Title != nil {
		if *ua.Title = core.CleanString(*ua.Title); *ua.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: blankText})
		}
	}
	if ua.Subject != nil {
		if *ua.Subject = core.CleanString(*ua.Subject); *ua.Subject == "" {
			flds = append(flds, core.FieldError{Field: "subject", Error: blankText})
		}
	}
	if ua.Description != nil {
		*ua.Description = core.CleanString(*ua.Description)
	}
	if ua.DueAt != nil && ua.DueAt.IsZero() {
		flds = append(flds, core.FieldError{Field: "due_at", Error: blankText})
	}
	if ua.MaterialIDs != nil {
		ids := core.CleanStrings(*ua.MaterialIDs)
		if ids == nil {
			ids = []string{}
		}
		ua.MaterialIDs = &ids
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	if ua.Attachments != nil {
		atts := cleanAttachments(*ua.Attachments)
		ua.Attachments = &atts
		for _, att := range atts {
			if err := core.Validate.Struct(att); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ua UpdateAssignment) IsEmpty() bool {
	return ua.Title == nil && ua.Description == nil && ua.Subject == nil && ua.DueAt == nil &&
		ua.Attachments == nil && ua.MaterialIDs == nil
}

func (ua UpdateAssignment) apply(a *Assignment) {
	if ua.Title != nil {
		a.Title = *ua.Title
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if ua.Subject != nil {
		a.Subject = *ua.Subject
	}
	if ua.DueAt != nil {
		a.DueAt = ua.DueAt.UTC()
	}
	if ua.Attachments != nil {
		a.Attachments = append([]Attachment{}, (*ua.Attachments)...)
	}
	if ua.MaterialIDs != nil {
		a.MaterialIDs = append([]string{}, (*ua.MaterialIDs)...)
	}
}

// NewSubmission contains the work a student hands in for an assignment.
type NewSubmission struct {
	AssignmentID string       `json:"assignment_id" validate:"required"`
	UserID       string       `json:"user_id" validate:"required"`
	Files        []Attachment `json:"files" validate:"dive"`
	Note         string       `json:"note"`
}

func (ns *NewSubmission) Validate() error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.UserID = core.CleanString(ns.UserID)
	ns.Note = core.CleanString(ns.Note)
	ns.Files = cleanAttachments(ns.Files)
	return core.Validate.Struct(ns)
}

// GradeInput scores a submission.
type GradeInput struct {
	Score    float64 `json:"score" validate:"min=0,max=100"`
	Feedback string  `json:"feedback"`
}

func (gi *GradeInput) Validate() error {
	gi.Feedback = core.CleanString(gi.Feedback)
	return core.Validate.Struct(gi)
}

const blankText = "this field cannot be blank"

func cleanAttachments(atts []Attachment) []Attachment {
	if atts == nil {
		return nil
	}
	out := make([]Attachment, 0, len(atts))
	for _, att := range atts {
		att.Name = core.CleanString(att.Name)
		att.URL = core.CleanString(att.URL)
		if att.Name == "" && att.URL == "" {
			continue
		}
		out = append(out, att)
	}
	return out
}

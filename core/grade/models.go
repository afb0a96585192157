package grade

import (
	"time"

	"github.com/trezcool/classportal/core"
)

// Kinds
const (
	KindExam          = "exam"
	KindQuiz          = "quiz"
	KindAssignment    = "assignment"
	KindProject       = "project"
	KindParticipation = "participation"
)

var Kinds = []string{KindExam, KindQuiz, KindAssignment, KindProject, KindParticipation}

// Letters, best first.
var Letters = []string{"A", "B", "C", "D", "E"}

// Letter maps a 0-100 score to its letter: A >= 85, B >= 70, C >= 55, D >= 40, else E.
func Letter(score float64) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "E"
	}
}

type Grade struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Subject    string    `json:"subject"`
	Score      float64   `json:"score"`
	Kind       string    `json:"kind"`
	Term       string    `json:"term"`
	Note       string    `json:"note"`
	RecordedAt time.Time `json:"recorded_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"`  // UTC
}

func gradeKey(g *Grade) *string { return &g.ID }

func (g Grade) Letter() string { return Letter(g.Score) }

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID string  `json:"student_id" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
	Kind      string  `json:"kind" validate:"omitempty,gradekind"`
	Term      string  `json:"term"`
	Note      string  `json:"note"`
}

func (ng *NewGrade) Validate() error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.Subject = core.CleanString(ng.Subject)
	ng.Kind = core.CleanString(ng.Kind, true /* lower */)
	ng.Term = core.CleanString(ng.Term)
	ng.Note = core.CleanString(ng.Note)
	if ng.Kind == "" {
		ng.Kind = KindExam
	}
	return core.Validate.Struct(ng)
}

// UpdateGrade defines what information may be provided to modify an existing Grade.
// Unset fields are left unchanged.
type UpdateGrade struct {
	Subject *string  `json:"subject"`
	Score   *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Kind    *string  `json:"kind" validate:"omitempty,gradekind"`
	Term    *string  `json:"term"`
	Note    *string  `json:"note"`
}

func (ug *UpdateGrade) Validate() error {
	for _, s := range []*string{ug.Subject, ug.Term, ug.Note} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if ug.Kind != nil {
		if *ug.Kind = core.CleanString(*ug.Kind, true /* lower */); *ug.Kind == "" {
			ug.Kind = nil
		}
	}
	if ug.Subject != nil && *ug.Subject == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "subject", Error: "this field cannot be blank"})
	}
	return core.Validate.Struct(ug)
}

func (ug UpdateGrade) IsEmpty() bool {
	return ug.Subject == nil && ug.Score == nil && ug.Kind == nil && ug.Term == nil && ug.Note == nil
}

func (ug UpdateGrade) apply(g *Grade) {
	if ug.Subject != nil {
		g.Subject = *ug.Subject
	}
	if ug.Score != nil {
		g.Score = *ug.Score
	}
	if ug.Kind != nil {
		g.Kind = *ug.Kind
	}
	if ug.Term != nil {
		g.Term = *ug.Term
	}
	if ug.Note != nil {
		g.Note = *ug.Note
	}
}

// SubjectAverage is the rounded mean score of a subject.
type SubjectAverage struct {
	Subject string `json:"subject"`
	Average int    `json:"average"`
	Letter  string `json:"letter"`
	Count   int    `json:"count"`
}

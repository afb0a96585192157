package feedback

import (
	"time"

	"github.com/trezcool/classportal/core"
)

// Types
const (
	TypeCourse   = "course"
	TypeTeacher  = "teacher"
	TypeFacility = "facility"
	TypePlatform = "platform"
	TypeOther    = "other"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusReviewed  = "reviewed"
	StatusResponded = "responded"
	StatusResolved  = "resolved"
)

var (
	Types    = []string{TypeCourse, TypeTeacher, TypeFacility, TypePlatform, TypeOther}
	Statuses = []string{StatusPending, StatusReviewed, StatusResponded, StatusResolved}
)

type Response struct {
	AdminID     string    `json:"admin_id"`
	Text        string    `json:"text"`
	RespondedAt time.Time `json:"responded_at"`
}

type Feedback struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	Anonymous bool      `json:"anonymous"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Response  *Response `json:"response,omitempty"`
}

func feedbackKey(f *Feedback) *string { return &f.ID }

func cloneFeedback(f Feedback) Feedback {
	if f.Response != nil {
		resp := *f.Response
		f.Response = &resp
	}
	return f
}

// Public hides the student of an anonymous feedback.
func (f Feedback) Public() Feedback {
	if f.Anonymous {
		f.StudentID = ""
	}
	return f
}

// NewFeedback contains what a student submits.
type NewFeedback struct {
	StudentID string `json:"student_id" validate:"required"`
	Type      string `json:"type" validate:"required,feedbacktype"`
	Category  string `json:"category"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Message   string `json:"message" validate:"required"`
	Anonymous bool   `json:"anonymous"`
}

func (nf *NewFeedback) Validate() error {
	nf.StudentID = core.CleanString(nf.StudentID)
	nf.Type = core.CleanString(nf.Type, true /* lower */)
	nf.Category = core.CleanString(nf.Category)
	nf.Message = core.CleanString(nf.Message)
	return core.Validate.Struct(nf)
}

// NewResponse is an admin answer to a feedback.
type NewResponse struct {
	AdminID string `json:"admin_id" validate:"required"`
	Text    string `json:"text" validate:"required"`
}

func (nr *NewResponse) Validate() error {
	nr.AdminID = core.CleanString(nr.AdminID)
	nr.Text = core.CleanString(nr.Text)
	return core.Validate.Struct(nr)
}

// Stats summarises all feedback.
type Stats struct {
	Total         int            `json:"total"`
	ByType        map[string]int `json:"by_type"`
	ByStatus      map[string]int `json:"by_status"`
	AverageRating float64        `json:"average_rating"`
	ResponseRate  float64        `json:"response_rate"`
}

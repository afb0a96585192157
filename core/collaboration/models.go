package collaboration

import (
	"time"

	"github.com/trezcool/classportal/core"
)

const defaultMaxMembers = 10

type StudyGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	Members     []string  `json:"members"`
	MaxMembers  int       `json:"max_members"`
	CreatedAt   time.Time `json:"created_at"`
}

func groupKey(g *StudyGroup) *string { return &g.ID }

func cloneGroup(g StudyGroup) StudyGroup {
	g.Members = append([]string(nil), g.Members...)
	return g
}

func (g StudyGroup) IsMember(userID string) bool { return core.ContainsString(g.Members, userID) }
func (g StudyGroup) IsFull() bool                 { return len(g.Members) >= g.MaxMembers }

type PeerReview struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"` // soft reference
	ReviewerID   string    `json:"reviewer_id"`
	RevieweeID   string    `json:"reviewee_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func reviewKey(r *PeerReview) *string { return &r.ID }

type NewGroup struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id" validate:"required"`
	MaxMembers  int    `json:"max_members" validate:"min=0,max=100"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Subject = core.CleanString(ng.Subject)
	ng.Description = core.CleanString(ng.Description)
	ng.OwnerID = core.CleanString(ng.OwnerID)
	if ng.MaxMembers == 0 {
		ng.MaxMembers = defaultMaxMembers
	}
	return core.Validate.Struct(ng)
}

// UpdateGroup changes the fields that are set.
type UpdateGroup struct {
	Name        *string `json:"name"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	MaxMembers  *int    `json:"max_members"`
}

func (ug *UpdateGroup) Validate(orig StudyGroup) error {
	flds := make([]core.FieldError, 0)
	if ug.Name != nil {
		if *ug.Name = core.CleanString(*ug.Name); *ug.Name == "" {
			flds = append(flds, core.FieldError{Field: "name", Error: "this field cannot be blank"})
		}
	}
	if ug.Subject != nil {
		*ug.Subject = core.CleanString(*ug.Subject)
	}
	if ug.Description != nil {
		*ug.Description = core.CleanString(*ug.Description)
	}
	if ug.MaxMembers != nil && (*ug.MaxMembers < len(orig.Members) || *ug.MaxMembers > 100) {
		flds = append(flds, core.FieldError{Field: "max_members", Error: "must be between the member count and 100"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

type NewReview struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	ReviewerID   string `json:"reviewer_id" validate:"required"`
	RevieweeID   string `json:"reviewee_id" validate:"required,nefield=ReviewerID"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	Comment      string `json:"comment"`
}

func (nr *NewReview) Validate() error {
	nr.AssignmentID = core.CleanString(nr.AssignmentID)
	nr.ReviewerID = core.CleanString(nr.ReviewerID)
	nr.RevieweeID = core.CleanString(nr.RevieweeID)
	nr.Comment = core.CleanString(nr.Comment)
	return core.Validate.Struct(nr)
}

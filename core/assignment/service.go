// Package assignment manages assignments and the submissions students hand in for them.
// Deleting an assignment deletes its submissions.
package assignment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const (
	Slot            = "assignments"
	SubmissionsSlot = "submissions"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("this assignment was already submitted")
)

type Service struct {
	assignments *store.Collection[Assignment]
	submissions *store.Collection[Submission]
	nowFunc     func() time.Time // mockable

	// held by Submit and Delete so that no submission outlives its assignment
	cascadeMu sync.Mutex
}

func NewService(storage store.Storage) *Service {
	return &Service{
		assignments: store.NewCollection[Assignment](storage, Slot, assignmentKey, store.WithClone(cloneAssignment)),
		submissions: store.NewCollection[Submission](storage, SubmissionsSlot, submissionKey, store.WithClone(cloneSubmission)),
		nowFunc:     time.Now,
	}
}

// Load hydrates both assignments and submissions.
func (svc *Service) Load(ctx context.Context) error {
	if err := svc.assignments.Load(ctx); err != nil {
		return err
	}
	return svc.submissions.Load(ctx)
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	now := svc.nowFunc().UTC()
	a, err := svc.assignments.Add(ctx, Assignment{
		Title:       na.Title,
		Description: na.Description,
		Subject:     na.Subject,
		DueAt:       na.DueAt.UTC(),
		PostedAt:    now,
		UpdatedAt:   now,
		Attachments: na.Attachments,
		MaterialIDs: na.MaterialIDs,
		CreatedBy:   na.CreatedBy,
	})
	return a, pkgerrors.Wrap(err, "adding assignment")
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	if err := ua.Validate(); err != nil {
		return Assignment{}, err
	}
	if ua.IsEmpty() {
		return svc.Get(id)
	}
	a, err := svc.assignments.Update(ctx, id, func(a *Assignment) {
		ua.apply(a)
		a.UpdatedAt = svc.nowFunc().UTC()
	})
	if err != nil {
		if err == store.ErrNotFound {
			return Assignment{}, ErrNotFound
		}
		return Assignment{}, pkgerrors.Wrap(err, "updating assignment")
	}
	return a, nil
}

// Delete removes an assignment and all of its submissions.
func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	svc.cascadeMu.Lock()
	defer svc.cascadeMu.Unlock()

	ok, err := svc.assignments.Delete(ctx, id)
	if err != nil || !ok {
		return false, pkgerrors.Wrap(err, "deleting assignment")
	}
	if _, err := svc.submissions.DeleteWhere(ctx, func(s Submission) bool { return s.AssignmentID == id }); err != nil {
		return true, pkgerrors.Wrap(err, "deleting submissions")
	}
	return true, nil
}

func (svc *Service) Get(id string) (Assignment, error) {
	a, err := svc.assignments.Get(id)
	if err != nil {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

// List returns every assignment ordered by due date.
func (svc *Service) List() []Assignment {
	return sortByDueAt(svc.assignments.All())
}

func (svc *Service) BySubject(subject string) []Assignment {
	return sortByDueAt(svc.assignments.Filter(func(a Assignment) bool { return a.Subject == subject }))
}

// Upcoming returns the assignments due within window after now.
func (svc *Service) Upcoming(now time.Time, window time.Duration) []Assignment {
	end := now.Add(window)
	return sortByDueAt(svc.assignments.Filter(func(a Assignment) bool {
		return !a.DueAt.Before(now) && !a.DueAt.After(end)
	}))
}

// ReferencingMaterial returns the assignments listing the material id.
func (svc *Service) ReferencingMaterial(materialID string) []Assignment {
	return sortByDueAt(svc.assignments.Filter(func(a Assignment) bool {
		return core.ContainsString(a.MaterialIDs, materialID)
	}))
}

// Submit records the submission of a student. A student submits an assignment once;
// it is marked late when handed in after the due date.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	svc.cascadeMu.Lock()
	defer svc.cascadeMu.Unlock()

	a, err := svc.Get(ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}

	now := svc.nowFunc().UTC()
	sub, err := svc.submissions.AddUnless(ctx, Submission{
		AssignmentID: a.ID,
		UserID:       ns.UserID,
		SubmittedAt:  now,
		Files:        ns.Files,
		Note:         ns.Note,
		Status:       submitStatus(a, now),
	}, func(s Submission) error {
		if s.AssignmentID == a.ID && s.UserID == ns.UserID {
			return core.NewValidationError(
				ErrAlreadySubmitted,
				core.FieldError{Field: "assignment_id", Error: ErrAlreadySubmitted.Error()},
			)
		}
		return nil
	})
	if err != nil {
		if core.IsValidationError(err) {
			return Submission{}, err
		}
		return Submission{}, pkgerrors.Wrap(err, "adding submission")
	}
	return sub, nil
}

// Resubmit replaces the files and note of a submission. A graded submission loses its grade.
func (svc *Service) Resubmit(ctx context.Context, id string, files []Attachment, note string) (Submission, error) {
	files = cleanAttachments(files)
	for _, f := range files {
		if err := core.Validate.Struct(f); err != nil {
			return Submission{}, err
		}
	}
	orig, err := svc.submissions.Get(id)
	if err != nil {
		return Submission{}, ErrSubmissionNotFound
	}
	a, err := svc.Get(orig.AssignmentID)
	if err != nil {
		return Submission{}, err
	}

	now := svc.nowFunc().UTC()
	return svc.patchSubmission(ctx, id, func(s *Submission) {
		s.Files = files
		s.Note = core.CleanString(note)
		s.SubmittedAt = now
		s.Status = submitStatus(a, now)
		s.Score = null.Float64{}
		s.GradedAt = null.Time{}
		s.Feedback = ""
	})
}

// GradeSubmission scores a submission and marks it graded.
func (svc *Service) GradeSubmission(ctx context.Context, id string, gi GradeInput) (Submission, error) {
	if err := gi.Validate(); err != nil {
		return Submission{}, err
	}
	now := svc.nowFunc().UTC()
	return svc.patchSubmission(ctx, id, func(s *Submission) {
		s.Score = null.Float64From(gi.Score)
		s.Feedback = gi.Feedback
		s.Status = StatusGraded
		s.GradedAt = null.TimeFrom(now)
	})
}

func (svc *Service) DeleteSubmission(ctx context.Context, id string) (bool, error) {
	ok, err := svc.submissions.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting submission")
}

func (svc *Service) patchSubmission(ctx context.Context, id string, fn func(s *Submission)) (Submission, error) {
	sub, err := svc.submissions.Update(ctx, id, fn)
	if err != nil {
		if err == store.ErrNotFound {
			return Submission{}, ErrSubmissionNotFound
		}
		return Submission{}, pkgerrors.Wrap(err, "updating submission")
	}
	return sub, nil
}

func (svc *Service) GetSubmission(id string) (Submission, error) {
	sub, err := svc.submissions.Get(id)
	if err != nil {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

// Submission returns the submission of a user for an assignment.
func (svc *Service) Submission(assignmentID, userID string) (Submission, error) {
	sub, ok := svc.submissions.Find(func(s Submission) bool {
		return s.AssignmentID == assignmentID && s.UserID == userID
	})
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

func (svc *Service) SubmissionsFor(assignmentID string) []Submission {
	return sortBySubmittedAt(svc.submissions.Filter(func(s Submission) bool { return s.AssignmentID == assignmentID }))
}

func (svc *Service) SubmissionsBy(userID string) []Submission {
	return sortBySubmittedAt(svc.submissions.Filter(func(s Submission) bool { return s.UserID == userID }))
}

// CompletionRate returns the share (0-1) of totalStudents who submitted the assignment.
func (svc *Service) CompletionRate(assignmentID string, totalStudents int) float64 {
	if totalStudents <= 0 {
		return 0
	}
	submitters := make(map[string]struct{})
	for _, s := range svc.SubmissionsFor(assignmentID) {
		submitters[s.UserID] = struct{}{}
	}
	rate := float64(len(submitters)) / float64(totalStudents)
	if rate > 1 {
		rate = 1
	}
	return core.Round2(rate)
}

func submitStatus(a Assignment, at time.Time) string {
	if a.IsPastDue(at) {
		return StatusLate
	}
	return StatusSubmitted
}

func sortByDueAt(as []Assignment) []Assignment {
	sort.SliceStable(as, func(i, j int) bool { return as[i].DueAt.Before(as[j].DueAt) })
	return as
}

func sortBySubmittedAt(subs []Submission) []Submission {
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs
}

// Package feedback collects student feedback and the admin responses to it.
package feedback

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const Slot = "feedback"

var ErrNotFound = errors.New("feedback not found")

type Service struct {
	feedback *store.Collection[Feedback]
	nowFunc  func() time.Time // mockable
}

func NewService(storage store.Storage) *Service {
	return &Service{
		feedback: store.NewCollection[Feedback](storage, Slot, feedbackKey, store.WithClone(cloneFeedback)),
		nowFunc:  time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	return svc.feedback.Load(ctx)
}

// Submit records a pending feedback.
func (svc *Service) Submit(ctx context.Context, nf NewFeedback) (Feedback, error) {
	if err := nf.Validate(); err != nil {
		return Feedback{}, err
	}
	f, err := svc.feedback.Add(ctx, Feedback{
		StudentID: nf.StudentID,
		Type:      nf.Type,
		Category:  nf.Category,
		Rating:    nf.Rating,
		Message:   nf.Message,
		Anonymous: nf.Anonymous,
		Status:    StatusPending,
		CreatedAt: svc.nowFunc().UTC(),
	})
	return f, pkgerrors.Wrap(err, "adding feedback")
}

// Respond attaches (or replaces) the admin response and marks the feedback responded.
func (svc *Service) Respond(ctx context.Context, id string, nr NewResponse) (Feedback, error) {
	if err := nr.Validate(); err != nil {
		return Feedback{}, err
	}
	resp := Response{AdminID: nr.AdminID, Text: nr.Text, RespondedAt: svc.nowFunc().UTC()}
	return svc.patch(ctx, id, func(f *Feedback) {
		f.Response = &resp
		f.Status = StatusResponded
	})
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) (Feedback, error) {
	in := statusInput{Status: core.CleanString(status, true /* lower */)}
	if err := core.Validate.Struct(in); err != nil {
		return Feedback{}, err
	}
	return svc.patch(ctx, id, func(f *Feedback) { f.Status = in.Status })
}

func (svc *Service) patch(ctx context.Context, id string, fn func(f *Feedback)) (Feedback, error) {
	f, err := svc.feedback.Update(ctx, id, fn)
	if err != nil {
		if err == store.ErrNotFound {
			return Feedback{}, ErrNotFound
		}
		return Feedback{}, pkgerrors.Wrap(err, "updating feedback")
	}
	return f, nil
}

func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := svc.feedback.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting feedback")
}

func (svc *Service) Get(id string) (Feedback, error) {
	f, err := svc.feedback.Get(id)
	if err != nil {
		return Feedback{}, ErrNotFound
	}
	return f, nil
}

// List returns every feedback, newest first.
func (svc *Service) List() []Feedback {
	return newestFirst(svc.feedback.All())
}

func (svc *Service) ByStudent(studentID string) []Feedback {
	return newestFirst(svc.feedback.Filter(func(f Feedback) bool { return f.StudentID == studentID }))
}

func (svc *Service) ByStatus(status string) []Feedback {
	return newestFirst(svc.feedback.Filter(func(f Feedback) bool { return f.Status == status }))
}

func (svc *Service) ByType(typ string) []Feedback {
	return newestFirst(svc.feedback.Filter(func(f Feedback) bool { return f.Type == typ }))
}

// AverageRating returns the mean rating (2 decimals) of a feedback type, "" for all types.
func (svc *Service) AverageRating(typ string) float64 {
	all := svc.feedback.All()
	if typ != "" {
		all = svc.ByType(typ)
	}
	return averageRating(all)
}

func (svc *Service) Stats() Stats {
	all := svc.feedback.All()
	stats := Stats{
		Total:         len(all),
		ByType:        make(map[string]int, len(Types)),
		ByStatus:      make(map[string]int, len(Statuses)),
		AverageRating: averageRating(all),
	}
	var responded int
	for _, f := range all {
		stats.ByType[f.Type]++
		stats.ByStatus[f.Status]++
		if f.Response != nil {
			responded++
		}
	}
	if len(all) > 0 {
		stats.ResponseRate = core.Round2(float64(responded) / float64(len(all)))
	}
	return stats
}

func averageRating(all []Feedback) float64 {
	if len(all) == 0 {
		return 0
	}
	var sum int
	for _, f := range all {
		sum += f.Rating
	}
	return core.Round2(float64(sum) / float64(len(all)))
}

func newestFirst(all []Feedback) []Feedback {
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

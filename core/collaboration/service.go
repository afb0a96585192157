// Package collaboration holds study groups and peer reviews between students.
package collaboration

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const (
	GroupsSlot  = "study_groups"
	ReviewsSlot = "peer_reviews"
)

var (
	// errors
	ErrGroupNotFound    = errors.New("study group not found")
	ErrReviewNotFound   = errors.New("peer review not found")
	ErrGroupFull        = errors.New("study group is full")
	ErrAlreadyMember    = errors.New("already a member of this study group")
	ErrNotMember        = errors.New("not a member of this study group")
	ErrOwnerCannotLeave = errors.New("the owner cannot leave the study group")
	ErrAlreadyReviewed  = errors.New("this peer was already reviewed for this assignment")
)

type Service struct {
	groups  *store.Collection[StudyGroup]
	reviews *store.Collection[PeerReview]
	nowFunc func() time.Time // mockable
}

func NewService(storage store.Storage) *Service {
	return &Service{
		groups:  store.NewCollection[StudyGroup](storage, GroupsSlot, groupKey, store.WithClone(cloneGroup)),
		reviews: store.NewCollection[PeerReview](storage, ReviewsSlot, reviewKey),
		nowFunc: time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	if err := svc.groups.Load(ctx); err != nil {
		return err
	}
	return svc.reviews.Load(ctx)
}

// CreateGroup adds a study group whose first member is its owner.
func (svc *Service) CreateGroup(ctx context.Context, ng NewGroup) (StudyGroup, error) {
	if err := ng.Validate(); err != nil {
		return StudyGroup{}, err
	}
	g, err := svc.groups.Add(ctx, StudyGroup{
		Name:        ng.Name,
		Subject:     ng.Subject,
		Description: ng.Description,
		OwnerID:     ng.OwnerID,
		Members:     []string{ng.OwnerID},
		MaxMembers:  ng.MaxMembers,
		CreatedAt:   svc.nowFunc().UTC(),
	})
	return g, pkgerrors.Wrap(err, "adding study group")
}

func (svc *Service) UpdateGroup(ctx context.Context, id string, ug UpdateGroup) (StudyGroup, error) {
	orig, err := svc.Group(id)
	if err != nil {
		return StudyGroup{}, err
	}
	if err := ug.Validate(orig); err != nil {
		return StudyGroup{}, err
	}
	return svc.patchGroup(ctx, id, func(g *StudyGroup) error {
		if ug.Name != nil {
			g.Name = *ug.Name
		}
		if ug.Subject != nil {
			g.Subject = *ug.Subject
		}
		if ug.Description != nil {
			g.Description = *ug.Description
		}
		if ug.MaxMembers != nil {
			if *ug.MaxMembers < len(g.Members) {
				return ErrGroupFull
			}
			g.MaxMembers = *ug.MaxMembers
		}
		return nil
	})
}

// DeleteGroup removes a study group. Peer reviews are not tied to groups and stay.
func (svc *Service) DeleteGroup(ctx context.Context, id string) (bool, error) {
	ok, err := svc.groups.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting study group")
}

func (svc *Service) Group(id string) (StudyGroup, error) {
	g, err := svc.groups.Get(id)
	if err != nil {
		return StudyGroup{}, ErrGroupNotFound
	}
	return g, nil
}

// Groups returns every study group, newest first.
func (svc *Service) Groups() []StudyGroup {
	return newestGroups(svc.groups.All())
}

func (svc *Service) Join(ctx context.Context, id, userID string) (StudyGroup, error) {
	if userID = core.CleanString(userID); userID == "" {
		return StudyGroup{}, core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: "this field is required"})
	}
	return svc.patchGroup(ctx, id, func(g *StudyGroup) error {
		if g.IsMember(userID) {
			return ErrAlreadyMember
		}
		if g.IsFull() {
			return ErrGroupFull
		}
		g.Members = append(g.Members, userID)
		return nil
	})
}

func (svc *Service) Leave(ctx context.Context, id, userID string) (StudyGroup, error) {
	return svc.patchGroup(ctx, id, func(g *StudyGroup) error {
		if !g.IsMember(userID) {
			return ErrNotMember
		}
		if g.OwnerID == userID {
			return ErrOwnerCannotLeave
		}
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			if m != userID {
				members = append(members, m)
			}
		}
		g.Members = members
		return nil
	})
}

func (svc *Service) patchGroup(ctx context.Context, id string, fn func(g *StudyGroup) error) (StudyGroup, error) {
	g, err := svc.groups.Modify(ctx, id, fn)
	switch {
	case err == nil:
		return g, nil
	case err == store.ErrNotFound:
		return StudyGroup{}, ErrGroupNotFound
	case err == ErrAlreadyMember || err == ErrGroupFull || err == ErrNotMember || err == ErrOwnerCannotLeave:
		return StudyGroup{}, core.NewValidationError(err, core.FieldError{Field: "user_id", Error: err.Error()})
	}
	return StudyGroup{}, pkgerrors.Wrap(err, "updating study group")
}

// GroupsOf returns the groups a user is a member of.
func (svc *Service) GroupsOf(userID string) []StudyGroup {
	return newestGroups(svc.groups.Filter(func(g StudyGroup) bool { return g.IsMember(userID) }))
}

func (svc *Service) GroupsBySubject(subject string) []StudyGroup {
	return newestGroups(svc.groups.Filter(func(g StudyGroup) bool { return g.Subject == subject }))
}

// AddReview records a peer review. Students cannot review themselves, nor review the same peer
// twice for an assignment.
func (svc *Service) AddReview(ctx context.Context, nr NewReview) (PeerReview, error) {
	if err := nr.Validate(); err != nil {
		return PeerReview{}, err
	}
	r, err := svc.reviews.AddUnless(ctx, PeerReview{
		AssignmentID: nr.AssignmentID,
		ReviewerID:   nr.ReviewerID,
		RevieweeID:   nr.RevieweeID,
		Rating:       nr.Rating,
		Comment:      nr.Comment,
		CreatedAt:    svc.nowFunc().UTC(),
	}, func(r PeerReview) error {
		if r.AssignmentID == nr.AssignmentID && r.ReviewerID == nr.ReviewerID && r.RevieweeID == nr.RevieweeID {
			return core.NewValidationError(
				ErrAlreadyReviewed,
				core.FieldError{Field: "reviewee_id", Error: ErrAlreadyReviewed.Error()},
			)
		}
		return nil
	})
	if err != nil {
		if core.IsValidationError(err) {
			return PeerReview{}, err
		}
		return PeerReview{}, pkgerrors.Wrap(err, "adding peer review")
	}
	return r, nil
}

func (svc *Service) DeleteReview(ctx context.Context, id string) (bool, error) {
	ok, err := svc.reviews.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting peer review")
}

func (svc *Service) Review(id string) (PeerReview, error) {
	r, err := svc.reviews.Get(id)
	if err != nil {
		return PeerReview{}, ErrReviewNotFound
	}
	return r, nil
}

func (svc *Service) ReviewsFor(revieweeID string) []PeerReview {
	return newestReviews(svc.reviews.Filter(func(r PeerReview) bool { return r.RevieweeID == revieweeID }))
}

func (svc *Service) ReviewsBy(reviewerID string) []PeerReview {
	return newestReviews(svc.reviews.Filter(func(r PeerReview) bool { return r.ReviewerID == reviewerID }))
}

func (svc *Service) ReviewsForAssignment(assignmentID string) []PeerReview {
	return newestReviews(svc.reviews.Filter(func(r PeerReview) bool { return r.AssignmentID == assignmentID }))
}

// AverageReviewRating returns the mean rating (2 decimals) received by a student, 0 without reviews.
func (svc *Service) AverageReviewRating(revieweeID string) float64 {
	reviews := svc.ReviewsFor(revieweeID)
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return core.Round2(float64(sum) / float64(len(reviews)))
}

func newestGroups(groups []StudyGroup) []StudyGroup {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].CreatedAt.After(groups[j].CreatedAt) })
	return groups
}

func newestReviews(reviews []PeerReview) []PeerReview {
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews
}

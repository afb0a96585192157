// Package grade records student scores and derives averages and letter distributions from them.
package grade

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const Slot = "grades"

// ErrNotFound is returned when no grade has the given id.
var ErrNotFound = errors.New("grade not found")

type Service struct {
	grades  *store.Collection[Grade]
	nowFunc func() time.Time // mockable
}

func NewService(storage store.Storage) *Service {
	return &Service{
		grades:  store.NewCollection[Grade](storage, Slot, gradeKey),
		nowFunc: time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	return svc.grades.Load(ctx)
}

func (svc *Service) Add(ctx context.Context, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	now := svc.nowFunc().UTC()
	g, err := svc.grades.Add(ctx, Grade{
		StudentID:  ng.StudentID,
		Subject:    ng.Subject,
		Score:      ng.Score,
		Kind:       ng.Kind,
		Term:       ng.Term,
		Note:       ng.Note,
		RecordedAt: now,
		UpdatedAt:  now,
	})
	return g, pkgerrors.Wrap(err, "adding grade")
}

// Update applies the fields set in ug. An empty update changes nothing and writes nothing.
func (svc *Service) Update(ctx context.Context, id string, ug UpdateGrade) (Grade, error) {
	if err := ug.Validate(); err != nil {
		return Grade{}, err
	}
	if ug.IsEmpty() {
		return svc.Get(id)
	}
	g, err := svc.grades.Update(ctx, id, func(g *Grade) {
		ug.apply(g)
		g.UpdatedAt = svc.nowFunc().UTC()
	})
	if err != nil {
		if err == store.ErrNotFound {
			return Grade{}, ErrNotFound
		}
		return Grade{}, pkgerrors.Wrap(err, "updating grade")
	}
	return g, nil
}

// Delete reports whether a grade was removed.
func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := svc.grades.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting grade")
}

// DeleteByStudent removes every grade of a student.
func (svc *Service) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	n, err := svc.grades.DeleteWhere(ctx, func(g Grade) bool { return g.StudentID == studentID })
	return n, pkgerrors.Wrap(err, "deleting grades")
}

func (svc *Service) Get(id string) (Grade, error) {
	g, err := svc.grades.Get(id)
	if err != nil {
		return Grade{}, ErrNotFound
	}
	return g, nil
}

// All returns every grade in recording order.
func (svc *Service) All() []Grade {
	return sortByRecordedAt(svc.grades.All())
}

func (svc *Service) ByStudent(studentID string) []Grade {
	return sortByRecordedAt(svc.grades.Filter(func(g Grade) bool { return g.StudentID == studentID }))
}

func (svc *Service) ByStudentAndSubject(studentID, subject string) []Grade {
	return sortByRecordedAt(svc.grades.Filter(func(g Grade) bool {
		return g.StudentID == studentID && g.Subject == subject
	}))
}

func (svc *Service) BySubject(subject string) []Grade {
	return sortByRecordedAt(svc.grades.Filter(func(g Grade) bool { return g.Subject == subject }))
}

// Subjects returns the distinct graded subjects, sorted.
func (svc *Service) Subjects() []string {
	seen := make(map[string]struct{})
	subjects := make([]string, 0)
	for _, g := range svc.grades.All() {
		if _, ok := seen[g.Subject]; !ok {
			seen[g.Subject] = struct{}{}
			subjects = append(subjects, g.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// AverageGrade returns the rounded mean score of a student, 0 without grades.
func (svc *Service) AverageGrade(studentID string) int {
	return core.Round(Mean(svc.ByStudent(studentID)))
}

// SubjectAverage returns the rounded mean score of a student in a subject, 0 without grades.
func (svc *Service) SubjectAverage(studentID, subject string) int {
	return core.Round(Mean(svc.ByStudentAndSubject(studentID, subject)))
}

// SubjectAverages returns the per subject averages of a student, sorted by subject.
func (svc *Service) SubjectAverages(studentID string) []SubjectAverage {
	return Averages(svc.ByStudent(studentID))
}

// ClassAverage returns the rounded mean score of every grade in a subject ("" for all subjects).
func (svc *Service) ClassAverage(subject string) int {
	if subject == "" {
		return core.Round(Mean(svc.grades.All()))
	}
	return core.Round(Mean(svc.BySubject(subject)))
}

// Distribution counts the grades of a subject ("" for all subjects) per letter.
func (svc *Service) Distribution(subject string) map[string]int {
	grades := svc.grades.All()
	if subject != "" {
		grades = svc.BySubject(subject)
	}
	return Distribution(grades)
}

// Mean returns the unrounded mean score of grades, 0 when empty.
func Mean(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Score
	}
	return sum / float64(len(grades))
}

// Averages groups grades by subject and returns their rounded averages, sorted by subject.
func Averages(grades []Grade) []SubjectAverage {
	bySubject := make(map[string][]Grade)
	for _, g := range grades {
		bySubject[g.Subject] = append(bySubject[g.Subject], g)
	}
	avgs := make([]SubjectAverage, 0, len(bySubject))
	for subject, gg := range bySubject {
		mean := Mean(gg)
		avgs = append(avgs, SubjectAverage{
			Subject: subject,
			Average: core.Round(mean),
			Letter:  Letter(float64(core.Round(mean))),
			Count:   len(gg),
		})
	}
	sort.Slice(avgs, func(i, j int) bool { return avgs[i].Subject < avgs[j].Subject })
	return avgs
}

// Distribution counts grades per letter. Every letter is present in the result.
func Distribution(grades []Grade) map[string]int {
	dist := make(map[string]int, len(Letters))
	for _, l := range Letters {
		dist[l] = 0
	}
	for _, g := range grades {
		dist[g.Letter()]++
	}
	return dist
}

func sortByRecordedAt(grades []Grade) []Grade {
	sort.SliceStable(grades, func(i, j int) bool { return grades[i].RecordedAt.Before(grades[j].RecordedAt) })
	return grades
}

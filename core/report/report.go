// Package report builds per student report cards from the grade, assignment and feedback stores.
// Reports are recomputed on every call.
package report

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/feedback"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/user"
)

var ErrStudentNotFound = errors.New("student not found")

type (
	UserSource interface {
		GetByID(id string) (user.User, error)
		Students() []user.User
	}

	GradeSource interface {
		ByStudent(studentID string) []grade.Grade
	}

	AssignmentSource interface {
		List() []assignment.Assignment
		SubmissionsBy(userID string) []assignment.Submission
	}

	FeedbackSource interface {
		ByStudent(studentID string) []feedback.Feedback
	}
)

type StudentReport struct {
	StudentID        string                 `json:"student_id"`
	StudentName      string                 `json:"student_name"`
	Average          int                    `json:"average"`
	Letter           string                 `json:"letter"` // "" without grades
	Subjects         []grade.SubjectAverage `json:"subjects"`
	AssignmentsTotal int                    `json:"assignments_total"`
	Submitted        int                    `json:"submitted"`
	Late             int                    `json:"late"`
	Graded           int                    `json:"graded"`
	CompletionRate   float64                `json:"completion_rate"`
	FeedbackCount    int                    `json:"feedback_count"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

type Generator struct {
	users       UserSource
	grades      GradeSource
	assignments AssignmentSource
	feedback    FeedbackSource
	nowFunc     func() time.Time // mockable
}

func NewGenerator(users UserSource, grades GradeSource, assignments AssignmentSource, feedback FeedbackSource) *Generator {
	return &Generator{
		users:       users,
		grades:      grades,
		assignments: assignments,
		feedback:    feedback,
		nowFunc:     time.Now,
	}
}

// Student returns the report of one student.
func (g *Generator) Student(studentID string) (StudentReport, error) {
	usr, err := g.users.GetByID(studentID)
	if err != nil || !usr.IsStudent() {
		return StudentReport{}, ErrStudentNotFound
	}
	return g.build(usr, g.assignments.List()), nil
}

// Class returns the reports of every active student, sorted by name.
func (g *Generator) Class() []StudentReport {
	assignments := g.assignments.List()
	students := g.users.Students()
	reports := make([]StudentReport, 0, len(students))
	for _, usr := range students {
		reports = append(reports, g.build(usr, assignments))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return strings.ToLower(reports[i].StudentName) < strings.ToLower(reports[j].StudentName)
	})
	return reports
}

func (g *Generator) build(usr user.User, assignments []assignment.Assignment) StudentReport {
	grades := g.grades.ByStudent(usr.ID)
	rep := StudentReport{
		StudentID:        usr.ID,
		StudentName:      usr.DisplayName(),
		Subjects:         grade.Averages(grades),
		AssignmentsTotal: len(assignments),
		FeedbackCount:    len(g.feedback.ByStudent(usr.ID)),
		GeneratedAt:      g.nowFunc().UTC(),
	}
	if len(grades) > 0 {
		rep.Average = core.Round(grade.Mean(grades))
		rep.Letter = grade.Letter(float64(rep.Average))
	}

	exists := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		exists[a.ID] = struct{}{}
	}
	submitted := make(map[string]struct{})
	for _, sub := range g.assignments.SubmissionsBy(usr.ID) {
		if _, ok := exists[sub.AssignmentID]; !ok {
			continue
		}
		if _, dup := submitted[sub.AssignmentID]; dup {
			continue
		}
		submitted[sub.AssignmentID] = struct{}{}
		switch {
		case sub.IsGraded():
			rep.Graded++
		case sub.Status == assignment.StatusLate:
			rep.Late++
		}
	}
	rep.Submitted = len(submitted)
	rep.CompletionRate = CompletionRate(rep.Submitted, rep.AssignmentsTotal)
	return rep
}

// CompletionRate returns submitted/total rounded to 2 decimals, 0 when there is nothing to submit.
func CompletionRate(submitted, total int) float64 {
	if total == 0 {
		return 0
	}
	return core.Round2(float64(submitted) / float64(total))
}

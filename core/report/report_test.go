package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/feedback"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/user"
	"github.com/trezcool/classportal/storage/kv/memory"
)

type fixture struct {
	users       *user.Service
	grades      *grade.Service
	assignments *assignment.Service
	feedback    *feedback.Service
	gen         *Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	fx := &fixture{
		users:       user.NewService(mem, core.NewTestConfig(), core.NopEmailService{}),
		grades:      grade.NewService(mem),
		assignments: assignment.NewService(mem),
		feedback:    feedback.NewService(mem),
	}
	for _, load := range []func(context.Context) error{
		fx.users.Load, fx.grades.Load, fx.assignments.Load, fx.feedback.Load,
	} {
		if err := load(ctx); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	fx.gen = NewGenerator(fx.users, fx.grades, fx.assignments, fx.feedback)
	fx.gen.nowFunc = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	return fx
}

func (fx *fixture) student(t *testing.T, name, uname string) user.User {
	t.Helper()
	usr, err := fx.users.Save(context.Background(), user.User{
		Name: name, Username: uname, IsActive: true, Roles: []string{user.RoleStudent},
	}, "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return usr
}

func (fx *fixture) grade(t *testing.T, studentID, subject string, score float64) {
	t.Helper()
	if _, err := fx.grades.Add(context.Background(), grade.NewGrade{StudentID: studentID, Subject: subject, Score: score}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
}

func TestGenerator_Student(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	budi := fx.student(t, "Budi", "budi01")
	teacher, _ := fx.users.Save(ctx, user.User{Name: "Guru", Username: "guru01", IsActive: true, Roles: []string{user.RoleTeacher}}, "")

	fx.grade(t, budi.ID, "Matematika", 85)
	fx.grade(t, budi.ID, "Matematika", 90)
	fx.grade(t, budi.ID, "Matematika", 78)

	due := time.Now().Add(-time.Hour)
	a1, _ := fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A1", Subject: "Matematika", DueAt: due.Add(48 * time.Hour)})
	a2, _ := fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A2", Subject: "Matematika", DueAt: due})
	_, _ = fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A3", Subject: "Matematika", DueAt: due})
	_, _ = fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A4", Subject: "Matematika", DueAt: due})
	sub1, _ := fx.assignments.Submit(ctx, assignment.NewSubmission{AssignmentID: a1.ID, UserID: budi.ID})
	_, _ = fx.assignments.GradeSubmission(ctx, sub1.ID, assignment.GradeInput{Score: 90})
	_, _ = fx.assignments.Submit(ctx, assignment.NewSubmission{AssignmentID: a2.ID, UserID: budi.ID})
	_, _ = fx.feedback.Submit(ctx, feedback.NewFeedback{StudentID: budi.ID, Type: feedback.TypeCourse, Rating: 5, Message: "ok"})

	got, err := fx.gen.Student(budi.ID)
	if err != nil {
		t.Fatalf("Student() error = %v", err)
	}
	want := StudentReport{
		StudentID:        budi.ID,
		StudentName:      "Budi",
		Average:          84,
		Letter:           "B",
		AssignmentsTotal: 4,
		Submitted:        2,
		Late:             1,
		Graded:           1,
		CompletionRate:   0.5,
		FeedbackCount:    1,
	}
	if got.StudentID != want.StudentID || got.StudentName != want.StudentName || got.Average != want.Average ||
		got.Letter != want.Letter || got.AssignmentsTotal != want.AssignmentsTotal || got.Submitted != want.Submitted ||
		got.Late != want.Late || got.Graded != want.Graded || got.CompletionRate != want.CompletionRate ||
		got.FeedbackCount != want.FeedbackCount {
		t.Errorf("Student() = %+v, want %+v", got, want)
	}
	if len(got.Subjects) != 1 || got.Subjects[0].Average != 84 || got.Subjects[0].Count != 3 {
		t.Errorf("Student().Subjects = %+v", got.Subjects)
	}

	// deleting an assignment drops its submission from the report
	_, _ = fx.assignments.Delete(ctx, a2.ID)
	if got, _ := fx.gen.Student(budi.ID); got.Submitted != 1 || got.AssignmentsTotal != 3 || got.CompletionRate != 0.33 {
		t.Errorf("Student() after delete = %+v", got)
	}

	for _, id := range []string{"nope", teacher.ID} {
		if _, err := fx.gen.Student(id); err != ErrStudentNotFound {
			t.Errorf("Student(%s) error = %v, want %v", id, err, ErrStudentNotFound)
		}
	}
}

func TestGenerator_ClassAndExport(t *testing.T) {
	fx := newFixture(t)
	citra := fx.student(t, "citra", "citra01")
	ani := fx.student(t, "Ani", "ani001")
	fx.grade(t, citra.ID, "Fisika", 39)

	reports := fx.gen.Class()
	if len(reports) != 2 || reports[0].StudentID != ani.ID || reports[1].StudentID != citra.ID {
		t.Fatalf("Class() = %+v", reports)
	}
	if reports[0].Letter != "" || reports[1].Letter != "E" {
		t.Errorf("Class() letters = %q, %q", reports[0].Letter, reports[1].Letter)
	}

	var buf bytes.Buffer
	if err := ExportXLSX(&buf, reports); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Student ID" || rows[1][1] != "Ani" || rows[2][1] != "citra" || rows[2][2] != "39" || rows[2][3] != "E" {
		t.Errorf("rows = %v", rows)
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		submitted, total int
		want             float64
	}{
		{0, 0, 0},
		{1, 3, 0.33},
		{2, 3, 0.67},
		{3, 3, 1},
	}
	for _, tt := range tests {
		if got := CompletionRate(tt.submitted, tt.total); got != tt.want {
			t.Errorf("CompletionRate(%d, %d) = %v, want %v", tt.submitted, tt.total, got, tt.want)
		}
	}
}

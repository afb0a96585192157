package analytics

import (
	"context"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/collaboration"
	"github.com/trezcool/classportal/core/forum"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/knowledge"
	"github.com/trezcool/classportal/core/user"
	"github.com/trezcool/classportal/storage/kv/memory"
)

func TestTrend(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(scores ...float64) []grade.Grade {
		grades := make([]grade.Grade, len(scores))
		// recorded in reverse so Trend has to sort them
		for i, s := range scores {
			grades[len(scores)-1-i] = grade.Grade{Score: s, RecordedAt: day.AddDate(0, 0, i)}
		}
		return grades
	}

	tests := []struct {
		name   string
		grades []grade.Grade
		want   string
	}{
		{name: "no grades", grades: nil, want: TrendStable},
		{name: "single grade", grades: mk(90), want: TrendStable},
		{name: "improving", grades: mk(60, 62, 70, 72), want: TrendImproving},
		{name: "exactly 5 up", grades: mk(60, 65), want: TrendImproving},
		{name: "declining", grades: mk(90, 88, 70), want: TrendDeclining},
		{name: "within band", grades: mk(70, 74, 72, 73), want: TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.grades); got != tt.want {
				t.Errorf("Trend() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fixture struct {
	users         *user.Service
	grades        *grade.Service
	assignments   *assignment.Service
	forums        *forum.Service
	knowledge     *knowledge.Service
	collaboration *collaboration.Service
	engine        *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	fx := &fixture{
		users:         user.NewService(mem, core.NewTestConfig(), core.NopEmailService{}),
		grades:        grade.NewService(mem),
		assignments:   assignment.NewService(mem),
		forums:        forum.NewService(mem),
		knowledge:     knowledge.NewService(mem),
		collaboration: collaboration.NewService(mem),
	}
	for _, load := range []func(context.Context) error{
		fx.users.Load, fx.grades.Load, fx.assignments.Load, fx.forums.Load, fx.knowledge.Load, fx.collaboration.Load,
	} {
		if err := load(ctx); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	fx.engine = NewEngine(fx.users, fx.grades, fx.assignments, fx.forums, fx.knowledge, fx.collaboration)
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

// seed builds a class of three: ani does well and is active, budi struggles, citra has done nothing yet.
func seed(t *testing.T, fx *fixture) (ani, budi, citra user.User) {
	t.Helper()
	ctx := context.Background()
	ani = fx.student(t, "Ani", "ani01")
	budi = fx.student(t, "Budi", "budi01")
	citra = fx.student(t, "Citra", "citra01")

	fx.grade(t, ani.ID, "Math", 90)
	fx.grade(t, ani.ID, "Math", 92)
	fx.grade(t, ani.ID, "Physics", 40)
	fx.grade(t, budi.ID, "Physics", 50)

	due := time.Now().Add(72 * time.Hour)
	a1, err := fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A1", Subject: "Math", DueAt: due})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	a2, _ := fx.assignments.Create(ctx, assignment.NewAssignment{Title: "A2", Subject: "Math", DueAt: due})
	for _, aid := range []string{a1.ID, a2.ID} {
		if _, err := fx.assignments.Submit(ctx, assignment.NewSubmission{AssignmentID: aid, UserID: ani.ID}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	f, _ := fx.forums.CreateForum(ctx, forum.NewForum{Title: "Math help"})
	p, err := fx.forums.AddPost(ctx, f.ID, forum.NewPost{AuthorID: ani.ID, Title: "Limits", Content: "How?"})
	if err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}
	if _, err := fx.forums.AddComment(ctx, f.ID, p.ID, forum.NewComment{AuthorID: ani.ID, Content: "Solved it"}); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	kp, _ := fx.knowledge.Share(ctx, knowledge.NewPost{AuthorID: ani.ID, Title: "Notes", Content: "Chapter 1"})
	if _, err := fx.knowledge.ToggleLike(ctx, kp.ID, budi.ID); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	g, _ := fx.collaboration.CreateGroup(ctx, collaboration.NewGroup{Name: "Calculus", OwnerID: ani.ID})
	if _, err := fx.collaboration.Join(ctx, g.ID, budi.ID); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if _, err := fx.collaboration.AddReview(ctx, collaboration.NewReview{
		AssignmentID: a1.ID, ReviewerID: ani.ID, RevieweeID: budi.ID, Rating: 4,
	}); err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}
	return ani, budi, citra
}

func TestEngine_Student(t *testing.T) {
	fx := newFixture(t)
	ani, budi, citra := seed(t, fx)

	got, err := fx.engine.Student(ani.ID)
	if err != nil {
		t.Fatalf("Student() error = %v", err)
	}
	want := StudentInsights{
		StudentID:      ani.ID,
		StudentName:    "Ani",
		Average:        74,
		Letter:         "B",
		Trend:          TrendDeclining,
		Strengths:      []string{"Math"},
		Weaknesses:     []string{"Physics"},
		CompletionRate: 1,
		Engagement: Engagement{
			ForumPosts: 1, ForumComments: 1, KnowledgePosts: 1, LikesReceived: 1, StudyGroups: 1, PeerReviews: 1,
			Score: 11,
		},
		RiskReasons: []string{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Student() = %+v, want %+v", got, want)
	}

	got, _ = fx.engine.Student(budi.ID)
	if !got.AtRisk || !reflect.DeepEqual(got.RiskReasons, []string{"low average", "low completion rate"}) {
		t.Errorf("Student(budi) risk = %v %v, want at risk on average and completion", got.AtRisk, got.RiskReasons)
	}
	if got.Letter != "D" || got.Engagement.StudyGroups != 1 {
		t.Errorf("Student(budi) = %+v", got)
	}

	got, _ = fx.engine.Student(citra.ID)
	if got.Letter != "" || got.Average != 0 {
		t.Errorf("Student(citra) letter = %q, average = %d, want no grade", got.Letter, got.Average)
	}
	if !got.AtRisk || !reflect.DeepEqual(got.RiskReasons, []string{"low completion rate"}) {
		t.Errorf("Student(citra) risk = %v %v", got.AtRisk, got.RiskReasons)
	}

	if _, err := fx.engine.Student("unknown"); err != ErrStudentNotFound {
		t.Errorf("Student() error = %v, wantErr %v", err, ErrStudentNotFound)
	}
}

func TestEngine_NoAssignmentsIsNotRisk(t *testing.T) {
	fx := newFixture(t)
	dewi := fx.student(t, "Dewi", "dewi01")
	fx.grade(t, dewi.ID, "Art", 80)

	got, err := fx.engine.Student(dewi.ID)
	if err != nil {
		t.Fatalf("Student() error = %v", err)
	}
	if got.AtRisk || got.CompletionRate != 0 {
		t.Errorf("Student() at risk = %v, completion = %v, want not at risk", got.AtRisk, got.CompletionRate)
	}
}

func TestEngine_Overview(t *testing.T) {
	fx := newFixture(t)
	_, budi, citra := seed(t, fx)

	got := fx.engine.Overview()
	wantRisk := []string{budi.ID, citra.ID}
	sort.Strings(wantRisk)
	want := Overview{
		Students:     3,
		ClassAverage: 68,
		Distribution: map[string]int{"A": 0, "B": 1, "C": 0, "D": 1, "E": 0},
		AtRisk:       wantRisk,
		SubjectAverages: []grade.SubjectAverage{
			{Subject: "Math", Average: 91, Letter: "A", Count: 2},
			{Subject: "Physics", Average: 45, Letter: "D", Count: 2},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Overview() = %+v, want %+v", got, want)
	}

	names := make([]string, 0, 3)
	for _, si := range fx.engine.Students() {
		names = append(names, si.StudentName)
	}
	if !reflect.DeepEqual(names, []string{"Ani", "Budi", "Citra"}) {
		t.Errorf("Students() names = %v", names)
	}
}

// Package analytics derives learning insights (trends, strengths, engagement, risk) by joining
// the domain stores on student ids. Nothing is cached: every call recomputes from the stores.
package analytics

import (
	"errors"
	"sort"
	"strings"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/collaboration"
	"github.com/trezcool/classportal/core/forum"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/knowledge"
	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/user"
)

// Trends
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

const (
	trendBand        = 5.0
	strengthMin      = 85
	weaknessBelow    = 55
	riskAverageBelow = 55
	riskCompletion   = 0.5
)

var ErrStudentNotFound = errors.New("student not found")

type (
	UserSource interface {
		GetByID(id string) (user.User, error)
		Students() []user.User
	}

	GradeSource interface {
		All() []grade.Grade
		ByStudent(studentID string) []grade.Grade
	}

	AssignmentSource interface {
		List() []assignment.Assignment
		SubmissionsBy(userID string) []assignment.Submission
	}

	ForumSource interface {
		Activity(authorID string) forum.Activity
	}

	KnowledgeSource interface {
		SharedBy(authorID string) []knowledge.Post
		LikesReceived(authorID string) int
	}

	CollaborationSource interface {
		GroupsOf(userID string) []collaboration.StudyGroup
		ReviewsBy(reviewerID string) []collaboration.PeerReview
	}
)

type Engagement struct {
	ForumPosts     int `json:"forum_posts"`
	ForumComments  int `json:"forum_comments"`
	KnowledgePosts int `json:"knowledge_posts"`
	LikesReceived  int `json:"likes_received"`
	StudyGroups    int `json:"study_groups"`
	PeerReviews    int `json:"peer_reviews"`
	Score          int `json:"score"`
}

func (e *Engagement) computeScore() {
	e.Score = 2*e.ForumPosts + e.ForumComments + 3*e.KnowledgePosts + e.LikesReceived + 2*e.StudyGroups + 2*e.PeerReviews
}

type StudentInsights struct {
	StudentID      string     `json:"student_id"`
	StudentName    string     `json:"student_name"`
	Average        int        `json:"average"`
	Letter         string     `json:"letter"` // "" without grades
	Trend          string     `json:"trend"`
	Strengths      []string   `json:"strengths"`
	Weaknesses     []string   `json:"weaknesses"`
	CompletionRate float64    `json:"completion_rate"`
	Engagement     Engagement `json:"engagement"`
	AtRisk         bool       `json:"at_risk"`
	RiskReasons    []string   `json:"risk_reasons"`
}

type Overview struct {
	Students        int                    `json:"students"`
	ClassAverage    int                    `json:"class_average"`
	Distribution    map[string]int         `json:"distribution"` // students per letter of their average
	AtRisk          []string               `json:"at_risk"`      // student ids, sorted
	SubjectAverages []grade.SubjectAverage `json:"subject_averages"`
}

type Engine struct {
	users         UserSource
	grades        GradeSource
	assignments   AssignmentSource
	forums        ForumSource
	knowledge     KnowledgeSource
	collaboration CollaborationSource
}

func NewEngine(
	users UserSource,
	grades GradeSource,
	assignments AssignmentSource,
	forums ForumSource,
	knowledge KnowledgeSource,
	collaboration CollaborationSource,
) *Engine {
	return &Engine{
		users:         users,
		grades:        grades,
		assignments:   assignments,
		forums:        forums,
		knowledge:     knowledge,
		collaboration: collaboration,
	}
}

// Student returns the insights of one student.
func (e *Engine) Student(studentID string) (StudentInsights, error) {
	usr, err := e.users.GetByID(studentID)
	if err != nil || !usr.IsStudent() {
		return StudentInsights{}, ErrStudentNotFound
	}
	return e.insights(usr, e.assignments.List()), nil
}

// Students returns the insights of every active student, sorted by name.
func (e *Engine) Students() []StudentInsights {
	assignments := e.assignments.List()
	students := e.users.Students()
	all := make([]StudentInsights, 0, len(students))
	for _, usr := range students {
		all = append(all, e.insights(usr, assignments))
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].StudentName) < strings.ToLower(all[j].StudentName)
	})
	return all
}

// Overview summarises the class.
func (e *Engine) Overview() Overview {
	students := e.Students()
	ov := Overview{
		Students:        len(students),
		ClassAverage:    core.Round(grade.Mean(e.grades.All())),
		Distribution:    make(map[string]int, len(grade.Letters)),
		AtRisk:          make([]string, 0),
		SubjectAverages: grade.Averages(e.grades.All()),
	}
	for _, l := range grade.Letters {
		ov.Distribution[l] = 0
	}
	for _, si := range students {
		if si.Letter != "" {
			ov.Distribution[si.Letter]++
		}
		if si.AtRisk {
			ov.AtRisk = append(ov.AtRisk, si.StudentID)
		}
	}
	sort.Strings(ov.AtRisk)
	return ov
}

func (e *Engine) insights(usr user.User, assignments []assignment.Assignment) StudentInsights {
	grades := e.grades.ByStudent(usr.ID)
	si := StudentInsights{
		StudentID:   usr.ID,
		StudentName: usr.DisplayName(),
		Trend:       Trend(grades),
		Strengths:   make([]string, 0),
		Weaknesses:  make([]string, 0),
		RiskReasons: make([]string, 0),
	}
	if len(grades) > 0 {
		si.Average = core.Round(grade.Mean(grades))
		si.Letter = grade.Letter(float64(si.Average))
	}
	for _, avg := range grade.Averages(grades) {
		switch {
		case avg.Average >= strengthMin:
			si.Strengths = append(si.Strengths, avg.Subject)
		case avg.Average < weaknessBelow:
			si.Weaknesses = append(si.Weaknesses, avg.Subject)
		}
	}

	exists := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		exists[a.ID] = struct{}{}
	}
	submitted := make(map[string]struct{})
	for _, sub := range e.assignments.SubmissionsBy(usr.ID) {
		if _, ok := exists[sub.AssignmentID]; ok {
			submitted[sub.AssignmentID] = struct{}{}
		}
	}
	si.CompletionRate = report.CompletionRate(len(submitted), len(assignments))

	act := e.forums.Activity(usr.ID)
	si.Engagement = Engagement{
		ForumPosts:     act.Posts,
		ForumComments:  act.Comments,
		KnowledgePosts: len(e.knowledge.SharedBy(usr.ID)),
		LikesReceived:  e.knowledge.LikesReceived(usr.ID),
		StudyGroups:    len(e.collaboration.GroupsOf(usr.ID)),
		PeerReviews:    len(e.collaboration.ReviewsBy(usr.ID)),
	}
	si.Engagement.computeScore()

	if len(grades) > 0 && si.Average < riskAverageBelow {
		si.RiskReasons = append(si.RiskReasons, "low average")
	}
	if len(assignments) > 0 && si.CompletionRate < riskCompletion {
		si.RiskReasons = append(si.RiskReasons, "low completion rate")
	}
	si.AtRisk = len(si.RiskReasons) > 0
	return si
}

// Trend compares the mean of the later half of grades (in recording order) with the earlier half.
// A move of 5 points or more either way is a trend.
func Trend(grades []grade.Grade) string {
	if len(grades) < 2 {
		return TrendStable
	}
	sorted := append([]grade.Grade(nil), grades...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordedAt.Before(sorted[j].RecordedAt) })

	half := len(sorted) / 2
	diff := grade.Mean(sorted[half:]) - grade.Mean(sorted[:half])
	switch {
	case diff >= trendBand:
		return TrendImproving
	case diff <= -trendBand:
		return TrendDeclining
	}
	return TrendStable
}

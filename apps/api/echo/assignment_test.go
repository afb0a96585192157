package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/classportal/core/assignment"
)

func Test_assignmentApi_submissionFlow(t *testing.T) {
	app := setup(t)
	teacherToken := app.token(t, app.teacher)
	studentToken := app.token(t, app.student)
	otherToken := app.token(t, app.other)

	newAsg := assignment.NewAssignment{
		Title:   "Fractions",
		Subject: "Math",
		DueAt:   time.Now().Add(48 * time.Hour),
	}
	rec := app.do(http.MethodPost, "/v1/assignments", studentToken, marshalObj(t, newAsg))
	if rec.Code != http.StatusForbidden {
		t.Errorf("student POST /assignments code = %v, want 403", rec.Code)
	}
	rec = app.do(http.MethodPost, "/v1/assignments", teacherToken, marshalObj(t, newAsg))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /assignments code = %v; body %s", rec.Code, rec.Body.String())
	}
	var asg assignment.Assignment
	decode(t, rec, &asg)
	if asg.CreatedBy != app.teacher.ID {
		t.Errorf("CreatedBy = %q, want %q", asg.CreatedBy, app.teacher.ID)
	}

	rec = app.do(http.MethodPost, "/v1/assignments/"+asg.ID+"/submissions", studentToken, []byte(`{"note":"done","user_id":"someone-else"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST submissions code = %v; body %s", rec.Code, rec.Body.String())
	}
	var sub assignment.Submission
	decode(t, rec, &sub)
	if sub.UserID != app.student.ID || sub.Status != assignment.StatusSubmitted {
		t.Errorf("submission = %+v", sub)
	}

	app.run(t, []httpTest{
		{
			name:     "duplicate submission",
			method:   http.MethodPost,
			path:     "/v1/assignments/" + asg.ID + "/submissions",
			body:     []byte(`{"note":"again"}`),
			token:    studentToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown assignment",
			method:   http.MethodPost,
			path:     "/v1/assignments/nope/submissions",
			body:     []byte(`{}`),
			token:    studentToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "other student cannot see it",
			method:   http.MethodGet,
			path:     "/v1/assignments/submissions/" + sub.ID,
			token:    otherToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "student cannot grade",
			method:   http.MethodPost,
			path:     "/v1/assignments/submissions/" + sub.ID + "/grade",
			body:     []byte(`{"score":100}`),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "completion",
			method:   http.MethodGet,
			path:     "/v1/assignments/" + asg.ID + "/completion",
			token:    teacherToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, CompletionResponse{AssignmentID: asg.ID, Submitted: 1, Students: 2, Rate: 0.5}),
		},
	})

	rec = app.do(http.MethodPost, "/v1/assignments/submissions/"+sub.ID+"/grade", teacherToken, []byte(`{"score":88,"feedback":"good"}`))
	decode(t, rec, &sub)
	if rec.Code != http.StatusOK || sub.Status != assignment.StatusGraded || sub.Score.Float64 != 88 {
		t.Errorf("grade submission = %v %+v", rec.Code, sub)
	}

	var mine []assignment.Submission
	rec = app.do(http.MethodGet, "/v1/assignments/submissions/mine", studentToken)
	decode(t, rec, &mine)
	if len(mine) != 1 || mine[0].ID != sub.ID {
		t.Errorf("GET /assignments/submissions/mine = %+v", mine)
	}

	rec = app.do(http.MethodGet, "/v1/assignments/upcoming?days=3", otherToken)
	var upcoming []assignment.Assignment
	decode(t, rec, &upcoming)
	if len(upcoming) != 1 {
		t.Errorf("GET /assignments/upcoming?days=3 = %d assignments, want 1", len(upcoming))
	}
}

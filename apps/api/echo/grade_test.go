package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/classportal/core/grade"
)

func Test_gradeApi(t *testing.T) {
	app := setup(t)
	teacherToken := app.token(t, app.teacher)
	studentToken := app.token(t, app.student)
	otherToken := app.token(t, app.other)

	var first grade.Grade
	for i, score := range []float64{85, 90, 78} {
		rec := app.do(http.MethodPost, "/v1/grades", teacherToken, marshalObj(t, grade.NewGrade{
			StudentID: app.student.ID,
			Subject:   "Math",
			Score:     score,
		}))
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST /grades code = %v; body %s", rec.Code, rec.Body.String())
		}
		if i == 0 {
			decode(t, rec, &first)
		}
	}

	app.run(t, []httpTest{
		{
			name:     "student cannot grade",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     marshalObj(t, grade.NewGrade{StudentID: app.student.ID, Subject: "Math", Score: 100}),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "score out of range",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     marshalObj(t, grade.NewGrade{StudentID: app.student.ID, Subject: "Math", Score: 150}),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "own average",
			method:   http.MethodGet,
			path:     "/v1/grades/students/" + app.student.ID + "/average",
			token:    studentToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, StudentAverageResponse{
				StudentID: app.student.ID,
				Average:   84,
				Letter:    "B",
				Subjects:  []grade.SubjectAverage{{Subject: "Math", Average: 84, Letter: "B", Count: 3}},
			}),
		},
		{
			name:     "another student's average",
			method:   http.MethodGet,
			path:     "/v1/grades/students/" + app.student.ID + "/average",
			token:    otherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "another student's grade is hidden",
			method:   http.MethodGet,
			path:     "/v1/grades/" + first.ID,
			token:    otherToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "own grade",
			method:   http.MethodGet,
			path:     "/v1/grades/" + first.ID,
			token:    studentToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown grade",
			method:   http.MethodGet,
			path:     "/v1/grades/nope",
			token:    teacherToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "class",
			method:   http.MethodGet,
			path:     "/v1/grades/class?subject=Math",
			token:    teacherToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, ClassAverageResponse{
				Subject:      "Math",
				Average:      84,
				Distribution: map[string]int{"A": 2, "B": 1, "C": 0, "D": 0, "E": 0},
			}),
		},
		{
			name:     "subjects",
			method:   http.MethodGet,
			path:     "/v1/grades/subjects",
			token:    otherToken,
			wantCode: http.StatusOK,
			wantData: []byte(`["Math"]`),
		},
	})

	t.Run("update and delete", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/grades/"+first.ID, teacherToken, []byte(`{"score":100}`))
		var updated grade.Grade
		decode(t, rec, &updated)
		if rec.Code != http.StatusOK || updated.Score != 100 {
			t.Errorf("PUT /grades/:id = %v %+v", rec.Code, updated)
		}
		if rec = app.do(http.MethodDelete, "/v1/grades/"+first.ID, teacherToken); rec.Code != http.StatusNoContent {
			t.Errorf("DELETE /grades/:id code = %v, want 204", rec.Code)
		}
		if rec = app.do(http.MethodDelete, "/v1/grades/"+first.ID, teacherToken); rec.Code != http.StatusNotFound {
			t.Errorf("DELETE /grades/:id twice code = %v, want 404", rec.Code)
		}
	})
}

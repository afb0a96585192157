package echoapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trezcool/classportal/core/material"
)

// upload posts a multipart form with the given fields and an optional file.
func (app *testApp) upload(t *testing.T, path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Writer.Close() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func Test_materialApi(t *testing.T) {
	app := setup(t)
	teacherToken := app.token(t, app.teacher)
	studentToken := app.token(t, app.student)
	fields := map[string]string{"title": "Algebra notes", "subject": "Math", "kind": material.KindDocument}

	rec := app.upload(t, "/v1/materials", studentToken, fields, "notes.txt", []byte("x = 2"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("student upload code = %v, want 403", rec.Code)
	}
	rec = app.upload(t, "/v1/materials", teacherToken, fields, "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("upload without file code = %v, want 400", rec.Code)
	}

	rec = app.upload(t, "/v1/materials", teacherToken, fields, "notes.txt", []byte("x = 2"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload code = %v; body %s", rec.Code, rec.Body.String())
	}
	var m material.Material
	decode(t, rec, &m)
	if m.CurrentVersion != 1 || m.UploadedBy != app.teacher.ID {
		t.Errorf("uploaded material = %+v", m)
	}

	rec = app.upload(t, "/v1/materials/"+m.ID+"/versions", teacherToken, map[string]string{"note": "fixed"}, "notes.txt", []byte("x = 3"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add version code = %v; body %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"current version", "/v1/materials/" + m.ID + "/download", http.StatusOK, "x = 3"},
		{"first version", "/v1/materials/" + m.ID + "/download?version=1", http.StatusOK, "x = 2"},
		{"unknown version", "/v1/materials/" + m.ID + "/download?version=9", http.StatusNotFound, ""},
		{"bad version", "/v1/materials/" + m.ID + "/download?version=x", http.StatusBadRequest, ""},
		{"unknown material", "/v1/materials/nope/download", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, tt.path, studentToken)
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s code = %v, want %v; body %s", tt.path, rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("GET %s body = %q, want %q", tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}

	var versions []material.Version
	decode(t, app.do(http.MethodGet, "/v1/materials/"+m.ID+"/versions", studentToken), &versions)
	if len(versions) != 2 {
		t.Errorf("GET versions = %d, want 2", len(versions))
	}

	// the in-memory blob store cannot presign
	rec = app.do(http.MethodGet, "/v1/materials/"+m.ID+"/url", studentToken)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("GET /url code = %v, want 501", rec.Code)
	}

	if rec = app.do(http.MethodDelete, "/v1/materials/"+m.ID, teacherToken); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE material code = %v, want 204", rec.Code)
	}
	left, err := app.Blobs.List(context.Background(), "")
	if err != nil || len(left) != 0 {
		t.Errorf("blobs left after delete = %v, %v; want none", left, err)
	}
}

package grade

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/classportal/storage/kv/memory"
)

func newService(t *testing.T, mem *memory.Storage) *Service {
	t.Helper()
	svc := NewService(mem)
	tick := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return svc
}

func addGrades(t *testing.T, svc *Service, grades ...NewGrade) []Grade {
	t.Helper()
	out := make([]Grade, 0, len(grades))
	for _, ng := range grades {
		g, err := svc.Add(context.Background(), ng)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		out = append(out, g)
	}
	return out
}

func TestLetter(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {85, "A"}, {84.9, "B"}, {70, "B"}, {69, "C"}, {55, "C"},
		{54, "D"}, {40, "D"}, {39.5, "E"}, {0, "E"},
	}
	for _, tt := range tests {
		if got := Letter(tt.score); got != tt.want {
			t.Errorf("Letter(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestService_RoundTrip(t *testing.T) {
	mem := memory.New()
	svc := newService(t, mem)
	added := addGrades(t, svc, NewGrade{StudentID: "1", Subject: "Matematika", Score: 85})[0]

	got, err := newService(t, mem).Get(added.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, added) {
		t.Errorf("Get() = %+v, want %+v", got, added)
	}
	if got.StudentID != "1" || got.Subject != "Matematika" || got.Score != 85 || got.Kind != KindExam {
		t.Errorf("Get() = %+v", got)
	}
}

func TestService_Add(t *testing.T) {
	svc := newService(t, memory.New())

	tests := []struct {
		name    string
		ng      NewGrade
		wantErr bool
	}{
		{name: "valid", ng: NewGrade{StudentID: "1", Subject: "Fisika", Score: 70, Kind: "Quiz"}},
		{name: "no student", ng: NewGrade{Subject: "Fisika", Score: 70}, wantErr: true},
		{name: "no subject", ng: NewGrade{StudentID: "1", Subject: "  ", Score: 70}, wantErr: true},
		{name: "score above range", ng: NewGrade{StudentID: "1", Subject: "Fisika", Score: 101}, wantErr: true},
		{name: "negative score", ng: NewGrade{StudentID: "1", Subject: "Fisika", Score: -1}, wantErr: true},
		{name: "unknown kind", ng: NewGrade{StudentID: "1", Subject: "Fisika", Score: 70, Kind: "bonus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.ng)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if len(svc.All()) != 1 {
		t.Errorf("All() = %d grades, want 1", len(svc.All()))
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, mem)
	orig := addGrades(t, svc, NewGrade{StudentID: "1", Subject: "Matematika", Score: 85, Note: "midterm"})[0]

	score, blank, kind := 90.0, " ", "project"
	tests := []struct {
		name      string
		id        string
		ug        UpdateGrade
		wantScore float64
		wantKind  string
		wantErr   bool
	}{
		{name: "empty patch", id: orig.ID, wantScore: 85, wantKind: KindExam},
		{name: "score and kind", id: orig.ID, ug: UpdateGrade{Score: &score, Kind: &kind}, wantScore: 90, wantKind: KindProject},
		{name: "blank subject", id: orig.ID, ug: UpdateGrade{Subject: &blank}, wantErr: true},
		{name: "unknown id", id: "nope", ug: UpdateGrade{Score: &score}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Update(ctx, tt.id, tt.ug)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Update() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Score != tt.wantScore || got.Kind != tt.wantKind || got.Subject != "Matematika" || got.Note != "midterm" {
				t.Errorf("Update() = %+v", got)
			}
		})
	}

	// the empty patch did not write
	writes := mem.Writes(Slot)
	if _, err := svc.Update(ctx, orig.ID, UpdateGrade{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if mem.Writes(Slot) != writes {
		t.Error("Update() with an empty patch wrote the slot")
	}
	if _, err := svc.Update(ctx, "nope", UpdateGrade{}); err != ErrNotFound {
		t.Errorf("Update() error = %v, want %v", err, ErrNotFound)
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New())
	grades := addGrades(t, svc,
		NewGrade{StudentID: "1", Subject: "A", Score: 1},
		NewGrade{StudentID: "1", Subject: "B", Score: 2},
		NewGrade{StudentID: "2", Subject: "A", Score: 3},
	)

	if ok, err := svc.Delete(ctx, "nope"); ok || err != nil {
		t.Errorf("Delete(unknown) = %v, %v", ok, err)
	}
	if len(svc.All()) != 3 {
		t.Errorf("All() = %d grades, want 3", len(svc.All()))
	}
	if ok, err := svc.Delete(ctx, grades[1].ID); !ok || err != nil {
		t.Errorf("Delete() = %v, %v", ok, err)
	}
	for _, g := range svc.All() {
		if g.ID == grades[1].ID {
			t.Errorf("All() still contains %s", g.ID)
		}
	}
	if n, _ := svc.DeleteByStudent(ctx, "1"); n != 1 {
		t.Errorf("DeleteByStudent() = %d, want 1", n)
	}
	if len(svc.All()) != 1 {
		t.Errorf("All() = %d grades, want 1", len(svc.All()))
	}
}

func TestService_Averages(t *testing.T) {
	svc := newService(t, memory.New())
	addGrades(t, svc,
		NewGrade{StudentID: "1", Subject: "Matematika", Score: 85},
		NewGrade{StudentID: "1", Subject: "Matematika", Score: 90},
		NewGrade{StudentID: "1", Subject: "Matematika", Score: 78},
		NewGrade{StudentID: "2", Subject: "Matematika", Score: 50},
		NewGrade{StudentID: "2", Subject: "Biologi", Score: 65},
		NewGrade{StudentID: "2", Subject: "Biologi", Score: 30},
	)

	tests := []struct {
		name string
		got  int
		want int
	}{
		{name: "average grade", got: svc.AverageGrade("1"), want: 84},
		{name: "no grades", got: svc.AverageGrade("3"), want: 0},
		{name: "half rounds up", got: svc.SubjectAverage("2", "Biologi"), want: 48},
		{name: "class average", got: svc.ClassAverage("Matematika"), want: 76},
		{name: "class average all", got: svc.ClassAverage(""), want: 66},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d, want %d", tt.got, tt.want)
			}
		})
	}

	wantAvgs := []SubjectAverage{
		{Subject: "Biologi", Average: 48, Letter: "D", Count: 2},
		{Subject: "Matematika", Average: 50, Letter: "D", Count: 1},
	}
	if got := svc.SubjectAverages("2"); !reflect.DeepEqual(got, wantAvgs) {
		t.Errorf("SubjectAverages() = %+v, want %+v", got, wantAvgs)
	}
	wantDist := map[string]int{"A": 2, "B": 1, "C": 0, "D": 1, "E": 0}
	if got := svc.Distribution("Matematika"); !reflect.DeepEqual(got, wantDist) {
		t.Errorf("Distribution() = %v, want %v", got, wantDist)
	}
	if got := svc.Subjects(); !reflect.DeepEqual(got, []string{"Biologi", "Matematika"}) {
		t.Errorf("Subjects() = %v", got)
	}
}

package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/classportal/storage/kv/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(memory.New())
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

func TestService_Submit(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name    string
		nf      NewFeedback
		wantErr bool
	}{
		{name: "valid", nf: NewFeedback{StudentID: "s1", Type: "Course", Rating: 4, Message: "Great pace"}},
		{name: "rating too low", nf: NewFeedback{StudentID: "s1", Type: TypeCourse, Rating: 0, Message: "x"}, wantErr: true},
		{name: "rating too high", nf: NewFeedback{StudentID: "s1", Type: TypeCourse, Rating: 6, Message: "x"}, wantErr: true},
		{name: "unknown type", nf: NewFeedback{StudentID: "s1", Type: "canteen", Rating: 3, Message: "x"}, wantErr: true},
		{name: "no message", nf: NewFeedback{StudentID: "s1", Type: TypeCourse, Rating: 3, Message: " "}, wantErr: true},
		{name: "no student", nf: NewFeedback{Type: TypeCourse, Rating: 3, Message: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := svc.Submit(context.Background(), tt.nf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (f.Status != StatusPending || f.Type != TypeCourse || f.Response != nil) {
				t.Errorf("Submit() = %+v", f)
			}
		})
	}
}

func TestService_Respond(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	f, _ := svc.Submit(ctx, NewFeedback{StudentID: "s1", Type: TypeTeacher, Rating: 2, Message: "Too fast"})

	if _, err := svc.Respond(ctx, f.ID, NewResponse{AdminID: "a1"}); err == nil {
		t.Error("Respond() without text succeeded")
	}
	if _, err := svc.Respond(ctx, "nope", NewResponse{AdminID: "a1", Text: "ok"}); err != ErrNotFound {
		t.Errorf("Respond() error = %v, want %v", err, ErrNotFound)
	}
	got, err := svc.Respond(ctx, f.ID, NewResponse{AdminID: "a1", Text: "We will slow down"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got.Status != StatusResponded || got.Response == nil || got.Response.AdminID != "a1" || got.Message != "Too fast" {
		t.Errorf("Respond() = %+v", got)
	}

	// the stored response is not shared with callers
	got.Response.Text = "mutated"
	if stored, _ := svc.Get(f.ID); stored.Response.Text != "We will slow down" {
		t.Errorf("Get().Response = %+v", stored.Response)
	}

	if _, err := svc.SetStatus(ctx, f.ID, "closed"); err == nil {
		t.Error("SetStatus(closed) succeeded")
	}
	if got, err := svc.SetStatus(ctx, f.ID, "Resolved"); err != nil || got.Status != StatusResolved {
		t.Errorf("SetStatus() = %+v, %v", got, err)
	}
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	for _, nf := range []NewFeedback{
		{StudentID: "s1", Type: TypeCourse, Rating: 5, Message: "a"},
		{StudentID: "s1", Type: TypeCourse, Rating: 4, Message: "b", Anonymous: true},
		{StudentID: "s2", Type: TypeFacility, Rating: 2, Message: "c"},
	} {
		if _, err := svc.Submit(ctx, nf); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	first := svc.List()[2]
	_, _ = svc.Respond(ctx, first.ID, NewResponse{AdminID: "a1", Text: "thanks"})

	tests := []struct {
		name string
		typ  string
		want float64
	}{
		{name: "all", want: 3.67},
		{name: "course", typ: TypeCourse, want: 4.5},
		{name: "none", typ: TypeOther, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.AverageRating(tt.typ); got != tt.want {
				t.Errorf("AverageRating() = %v, want %v", got, tt.want)
			}
		})
	}

	stats := svc.Stats()
	if stats.Total != 3 || stats.ByType[TypeCourse] != 2 || stats.ByStatus[StatusPending] != 2 ||
		stats.ByStatus[StatusResponded] != 1 || stats.ResponseRate != 0.33 {
		t.Errorf("Stats() = %+v", stats)
	}
	if got := svc.ByStudent("s1"); len(got) != 2 || got[0].Message != "b" {
		t.Errorf("ByStudent() = %+v", got)
	}
	if got := svc.ByStudent("s1")[0].Public(); got.StudentID != "" {
		t.Errorf("Public() kept the student of an anonymous feedback")
	}
}

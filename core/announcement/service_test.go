package announcement

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/storage/kv/memory"
)

type recipientsFunc func(prefixes ...string) []mail.Address

func (f recipientsFunc) Recipients(prefixes ...string) []mail.Address { return f(prefixes...) }

type outbox struct {
	messages []*core.EmailMessage
}

func (o *outbox) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = msg.Render()
	}
	o.messages = append(o.messages, messages...)
}

func newService(t *testing.T, box *outbox) *Service {
	t.Helper()
	recipients := recipientsFunc(func(prefixes ...string) []mail.Address {
		switch prefixes[0] {
		case "student:":
			return []mail.Address{{Address: "s1@school.test"}, {Address: "s2@school.test"}}
		case "teacher:":
			return []mail.Address{{Address: "t1@school.test"}}
		}
		return []mail.Address{{Address: "s1@school.test"}, {Address: "s2@school.test"}, {Address: "t1@school.test"}}
	})
	svc := NewService(memory.New(), core.NewTestConfig(), box, recipients)
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

func TestService_Post(t *testing.T) {
	tests := []struct {
		name     string
		na       NewAnnouncement
		wantErr  bool
		wantSent int
	}{
		{name: "no title", na: NewAnnouncement{Content: "x"}, wantErr: true},
		{name: "no content", na: NewAnnouncement{Title: "x"}, wantErr: true},
		{name: "bad audience", na: NewAnnouncement{Title: "x", Content: "y", Audience: "parents"}, wantErr: true},
		{name: "silent", na: NewAnnouncement{Title: "Exam", Content: "Friday"}},
		{name: "students", na: NewAnnouncement{Title: "Exam", Content: "Friday", Audience: "Students", Notify: true}, wantSent: 2},
		{name: "everyone", na: NewAnnouncement{Title: "Holiday", Content: "Monday", Notify: true}, wantSent: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := &outbox{}
			svc := newService(t, box)
			a, err := svc.Post(context.Background(), tt.na)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Post() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(box.messages) != tt.wantSent {
				t.Errorf("sent %d messages, want %d", len(box.messages), tt.wantSent)
			}
			for _, msg := range box.messages {
				if len(msg.To) != 1 || msg.Subject != a.Title || msg.TextContent == "" {
					t.Errorf("message = %+v", msg)
				}
			}
		})
	}
}

func TestService_ListAndAudience(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &outbox{})
	old, _ := svc.Post(ctx, NewAnnouncement{Title: "old", Content: "x", Pinned: true})
	_, _ = svc.Post(ctx, NewAnnouncement{Title: "students", Content: "x", Audience: AudienceStudents})
	_, _ = svc.Post(ctx, NewAnnouncement{Title: "teachers", Content: "x", Audience: AudienceTeachers})

	titles := func(all []Announcement) []string {
		out := make([]string, 0, len(all))
		for _, a := range all {
			out = append(out, a.Title)
		}
		return out
	}
	tests := []struct {
		name string
		got  []Announcement
		want []string
	}{
		{name: "list", got: svc.List(), want: []string{"old", "teachers", "students"}},
		{name: "student", got: svc.ForAudience("student:"), want: []string{"old", "students"}},
		{name: "teacher", got: svc.ForAudience("teacher:"), want: []string{"old", "teachers"}},
		{name: "admin", got: svc.ForAudience("admin:"), want: []string{"old"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(tt.got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	unpin := false
	if a, err := svc.Update(ctx, old.ID, UpdateAnnouncement{Pinned: &unpin}); err != nil || a.Pinned {
		t.Errorf("Update() = %+v, %v", a, err)
	}
	if got := svc.List(); got[2].ID != old.ID {
		t.Errorf("List() after unpin = %v", titles(got))
	}
	audience := "parents"
	if _, err := svc.Update(ctx, old.ID, UpdateAnnouncement{Audience: &audience}); !core.IsValidationError(err) {
		t.Errorf("Update(bad audience) error = %v", err)
	}
	if ok, _ := svc.Delete(ctx, old.ID); !ok {
		t.Error("Delete() = false")
	}
	if _, err := svc.Get(old.ID); err != ErrNotFound {
		t.Errorf("Get() error = %v, want %v", err, ErrNotFound)
	}
}

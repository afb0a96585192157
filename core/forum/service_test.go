package forum

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trezcool/classportal/storage/kv/memory"
)

func newService(t *testing.T, mem *memory.Storage) *Service {
	t.Helper()
	svc := NewService(mem)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
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

func TestService_Posts(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, mem)
	f, err := svc.CreateForum(ctx, NewForum{Title: "Aljabar", Subject: "Matematika", CreatedBy: "t1"})
	if err != nil {
		t.Fatalf("CreateForum() error = %v", err)
	}

	p1, err := svc.AddPost(ctx, f.ID, NewPost{AuthorID: "s1", Title: "Q1", Content: "How?"})
	if err != nil {
		t.Fatalf("AddPost() error = %v", err)
	}
	p2, _ := svc.AddPost(ctx, f.ID, NewPost{AuthorID: "s2", Title: "Q2", Content: "Why?"})
	c1, err := svc.AddComment(ctx, f.ID, p1.ID, NewComment{AuthorID: "s2", Content: "Like this"})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	_, _ = svc.AddComment(ctx, f.ID, p1.ID, NewComment{AuthorID: "s1", Content: "Thanks"})

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{name: "post in unknown forum", run: func() error {
			_, err := svc.AddPost(ctx, "nope", NewPost{AuthorID: "s1", Title: "x", Content: "y"})
			return err
		}, wantErr: ErrNotFound},
		{name: "comment on unknown post", run: func() error {
			_, err := svc.AddComment(ctx, f.ID, "nope", NewComment{AuthorID: "s1", Content: "y"})
			return err
		}, wantErr: ErrPostNotFound},
		{name: "delete unknown comment", run: func() error {
			return svc.DeleteComment(ctx, f.ID, p1.ID, "nope")
		}, wantErr: ErrCommentNotFound},
		{name: "delete unknown post", run: func() error {
			return svc.DeletePost(ctx, f.ID, "nope")
		}, wantErr: ErrPostNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writes := mem.Writes(Slot)
			if err := tt.run(); err != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if mem.Writes(Slot) != writes {
				t.Error("a failed change wrote the slot")
			}
		})
	}

	if err := svc.DeleteComment(ctx, f.ID, p1.ID, c1.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if act := svc.Activity("s2"); act.Posts != 1 || act.Comments != 0 {
		t.Errorf("Activity(s2) = %+v", act)
	}
	if act := svc.Activity("s1"); act.Posts != 1 || act.Comments != 1 {
		t.Errorf("Activity(s1) = %+v", act)
	}

	// deleting a post drops its comments
	if err := svc.DeletePost(ctx, f.ID, p1.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	reloaded := newService(t, mem)
	got, err := reloaded.Get(f.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != p2.ID {
		t.Errorf("Get().Posts = %+v", got.Posts)
	}
	if act := reloaded.Activity("s1"); act.Posts != 0 || act.Comments != 0 {
		t.Errorf("Activity(s1) after DeletePost = %+v", act)
	}
}

func TestService_ReturnsDeepCopies(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New())
	f, _ := svc.CreateForum(ctx, NewForum{Title: "Biologi"})
	p, _ := svc.AddPost(ctx, f.ID, NewPost{AuthorID: "s1", Title: "Sel", Content: "?"})
	_, _ = svc.AddComment(ctx, f.ID, p.ID, NewComment{AuthorID: "s2", Content: "!"})

	got, _ := svc.Get(f.ID)
	got.Posts[0].Comments[0].Content = "mutated"
	got.Posts[0].Title = "mutated"

	again, _ := svc.Get(f.ID)
	if again.Posts[0].Title != "Sel" || again.Posts[0].Comments[0].Content != "!" {
		t.Errorf("Get() leaked internal state: %+v", again.Posts[0])
	}
}

func TestService_Forums(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New())
	a, _ := svc.CreateForum(ctx, NewForum{Title: "A", Subject: "Fisika"})
	b, _ := svc.CreateForum(ctx, NewForum{Title: "B", Subject: "Kimia"})

	if _, err := svc.CreateForum(ctx, NewForum{Title: " "}); err == nil {
		t.Error("CreateForum() without title succeeded")
	}
	if got := svc.List(); len(got) != 2 || got[0].ID != b.ID {
		t.Errorf("List() = %+v", got)
	}
	subj := "Kimia"
	if got, err := svc.UpdateForum(ctx, a.ID, UpdateForum{Subject: &subj}); err != nil || got.Title != "A" {
		t.Errorf("UpdateForum() = %+v, %v", got, err)
	}
	if got := svc.BySubject("Kimia"); len(got) != 2 {
		t.Errorf("BySubject() = %d forums, want 2", len(got))
	}
	if ok, _ := svc.DeleteForum(ctx, a.ID); !ok {
		t.Error("DeleteForum() = false")
	}
	if _, err := svc.Get(a.ID); err != ErrNotFound {
		t.Errorf("Get() error = %v, want %v", err, ErrNotFound)
	}
}

// Package knowledge lets students share notes and tips that others like and comment on.
package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const Slot = "knowledge_posts"

var ErrNotFound = errors.New("post not found")

type Service struct {
	posts   *store.Collection[Post]
	newID   func() string    // mockable
	nowFunc func() time.Time // mockable
}

func NewService(storage store.Storage) *Service {
	return &Service{
		posts:   store.NewCollection[Post](storage, Slot, postKey, store.WithClone(clonePost)),
		newID:   core.NewID,
		nowFunc: time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	return svc.posts.Load(ctx)
}

func (svc *Service) Share(ctx context.Context, np NewPost) (Post, error) {
	if err := np.Validate(); err != nil {
		return Post{}, err
	}
	now := svc.nowFunc().UTC()
	p, err := svc.posts.Add(ctx, Post{
		AuthorID:  np.AuthorID,
		Title:     np.Title,
		Content:   np.Content,
		Subject:   np.Subject,
		Tags:      np.Tags,
		Likes:     []string{},
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return p, pkgerrors.Wrap(err, "adding post")
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePost) (Post, error) {
	if err := up.Validate(); err != nil {
		return Post{}, err
	}
	if up.IsEmpty() {
		return svc.Get(id)
	}
	return svc.patch(ctx, id, func(p *Post) {
		if up.Title != nil {
			p.Title = *up.Title
		}
		if up.Content != nil {
			p.Content = *up.Content
		}
		if up.Subject != nil {
			p.Subject = *up.Subject
		}
		if up.Tags != nil {
			p.Tags = *up.Tags
		}
		p.UpdatedAt = svc.nowFunc().UTC()
	})
}

func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := svc.posts.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting post")
}

func (svc *Service) Get(id string) (Post, error) {
	p, err := svc.posts.Get(id)
	if err != nil {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// ToggleLike likes the post for userID, or removes the like if there is one.
func (svc *Service) ToggleLike(ctx context.Context, id, userID string) (Post, error) {
	if userID = core.CleanString(userID); userID == "" {
		return Post{}, core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: "this field is required"})
	}
	return svc.patch(ctx, id, func(p *Post) {
		likes := make([]string, 0, len(p.Likes)+1)
		for _, uid := range p.Likes {
			if uid != userID {
				likes = append(likes, uid)
			}
		}
		if len(likes) == len(p.Likes) {
			likes = append(likes, userID)
		}
		p.Likes = likes
	})
}

func (svc *Service) Comment(ctx context.Context, id string, nc NewComment) (Comment, error) {
	if err := nc.Validate(); err != nil {
		return Comment{}, err
	}
	comment := Comment{
		ID:        svc.newID(),
		AuthorID:  nc.AuthorID,
		Content:   nc.Content,
		CreatedAt: svc.nowFunc().UTC(),
	}
	if _, err := svc.patch(ctx, id, func(p *Post) { p.Comments = append(p.Comments, comment) }); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (svc *Service) patch(ctx context.Context, id string, fn func(p *Post)) (Post, error) {
	p, err := svc.posts.Update(ctx, id, fn)
	if err != nil {
		if err == store.ErrNotFound {
			return Post{}, ErrNotFound
		}
		return Post{}, pkgerrors.Wrap(err, "updating post")
	}
	return p, nil
}

// List returns every post, newest first.
func (svc *Service) List() []Post {
	return newestFirst(svc.posts.All())
}

func (svc *Service) BySubject(subject string) []Post {
	return newestFirst(svc.posts.Filter(func(p Post) bool { return p.Subject == subject }))
}

func (svc *Service) ByTag(tag string) []Post {
	tag = core.CleanString(tag, true /* lower */)
	return newestFirst(svc.posts.Filter(func(p Post) bool { return core.ContainsString(p.Tags, tag) }))
}

func (svc *Service) SharedBy(authorID string) []Post {
	return newestFirst(svc.posts.Filter(func(p Post) bool { return p.AuthorID == authorID }))
}

// Search does a case-insensitive match of text on the title, content and tags.
func (svc *Service) Search(text string) []Post {
	text = strings.ToLower(core.CleanString(text))
	if text == "" {
		return svc.List()
	}
	return newestFirst(svc.posts.Filter(func(p Post) bool {
		if strings.Contains(strings.ToLower(p.Title), text) || strings.Contains(strings.ToLower(p.Content), text) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(tag, text) {
				return true
			}
		}
		return false
	}))
}

// Popular returns the n most liked posts; ties go to the newest.
func (svc *Service) Popular(n int) []Post {
	posts := newestFirst(svc.posts.All())
	sort.SliceStable(posts, func(i, j int) bool { return len(posts[i].Likes) > len(posts[j].Likes) })
	if n >= 0 && n < len(posts) {
		posts = posts[:n]
	}
	return posts
}

// LikesReceived counts the likes on every post of an author.
func (svc *Service) LikesReceived(authorID string) int {
	var n int
	for _, p := range svc.SharedBy(authorID) {
		n += len(p.Likes)
	}
	return n
}

func newestFirst(posts []Post) []Post {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

// Package forum holds discussion forums with their nested posts and comments.
// Posts and comments are only reachable through their forum; every change replaces the whole forum.
package forum

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const Slot = "forums"

var (
	// errors
	ErrNotFound        = errors.New("forum not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

type Service struct {
	forums  *store.Collection[Forum]
	newID   func() string    // mockable
	nowFunc func() time.Time // mockable
}

func NewService(storage store.Storage) *Service {
	return &Service{
		forums:  store.NewCollection[Forum](storage, Slot, forumKey, store.WithClone(cloneForum)),
		newID:   core.NewID,
		nowFunc: time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	return svc.forums.Load(ctx)
}

func (svc *Service) CreateForum(ctx context.Context, nf NewForum) (Forum, error) {
	if err := nf.Validate(); err != nil {
		return Forum{}, err
	}
	f, err := svc.forums.Add(ctx, Forum{
		Title:       nf.Title,
		Description: nf.Description,
		Subject:     nf.Subject,
		CreatedBy:   nf.CreatedBy,
		CreatedAt:   svc.nowFunc().UTC(),
		Posts:       []Post{},
	})
	return f, pkgerrors.Wrap(err, "adding forum")
}

func (svc *Service) UpdateForum(ctx context.Context, id string, uf UpdateForum) (Forum, error) {
	if err := uf.Validate(); err != nil {
		return Forum{}, err
	}
	return svc.patch(ctx, id, func(f *Forum) error {
		if uf.Title != nil {
			f.Title = *uf.Title
		}
		if uf.Description != nil {
			f.Description = *uf.Description
		}
		if uf.Subject != nil {
			f.Subject = *uf.Subject
		}
		return nil
	})
}

// DeleteForum removes a forum with its posts and comments.
func (svc *Service) DeleteForum(ctx context.Context, id string) (bool, error) {
	ok, err := svc.forums.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting forum")
}

func (svc *Service) Get(id string) (Forum, error) {
	f, err := svc.forums.Get(id)
	if err != nil {
		return Forum{}, ErrNotFound
	}
	return f, nil
}

// List returns every forum, newest first.
func (svc *Service) List() []Forum {
	all := svc.forums.All()
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

func (svc *Service) BySubject(subject string) []Forum {
	all := svc.forums.Filter(func(f Forum) bool { return f.Subject == subject })
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

func (svc *Service) AddPost(ctx context.Context, forumID string, np NewPost) (Post, error) {
	if err := np.Validate(); err != nil {
		return Post{}, err
	}
	post := Post{
		ID:        svc.newID(),
		AuthorID:  np.AuthorID,
		Title:     np.Title,
		Content:   np.Content,
		CreatedAt: svc.nowFunc().UTC(),
		Comments:  []Comment{},
	}
	if _, err := svc.patch(ctx, forumID, func(f *Forum) error {
		f.Posts = append(f.Posts, post)
		return nil
	}); err != nil {
		return Post{}, err
	}
	return post, nil
}

// DeletePost removes a post and its comments.
func (svc *Service) DeletePost(ctx context.Context, forumID, postID string) error {
	_, err := svc.patch(ctx, forumID, func(f *Forum) error {
		i, ok := f.post(postID)
		if !ok {
			return ErrPostNotFound
		}
		f.Posts = append(f.Posts[:i], f.Posts[i+1:]...)
		return nil
	})
	return err
}

func (svc *Service) AddComment(ctx context.Context, forumID, postID string, nc NewComment) (Comment, error) {
	if err := nc.Validate(); err != nil {
		return Comment{}, err
	}
	comment := Comment{
		ID:        svc.newID(),
		AuthorID:  nc.AuthorID,
		Content:   nc.Content,
		CreatedAt: svc.nowFunc().UTC(),
	}
	if _, err := svc.patch(ctx, forumID, func(f *Forum) error {
		i, ok := f.post(postID)
		if !ok {
			return ErrPostNotFound
		}
		f.Posts[i].Comments = append(f.Posts[i].Comments, comment)
		return nil
	}); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (svc *Service) DeleteComment(ctx context.Context, forumID, postID, commentID string) error {
	_, err := svc.patch(ctx, forumID, func(f *Forum) error {
		i, ok := f.post(postID)
		if !ok {
			return ErrPostNotFound
		}
		comments := f.Posts[i].Comments
		for j, c := range comments {
			if c.ID == commentID {
				f.Posts[i].Comments = append(comments[:j], comments[j+1:]...)
				return nil
			}
		}
		return ErrCommentNotFound
	})
	return err
}

// PostsBy returns the posts of an author across forums, newest first.
func (svc *Service) PostsBy(authorID string) []Post {
	posts := make([]Post, 0)
	for _, f := range svc.forums.All() {
		for _, p := range f.Posts {
			if p.AuthorID == authorID {
				posts = append(posts, p)
			}
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

// Activity counts the posts and comments of an author across forums.
func (svc *Service) Activity(authorID string) Activity {
	var act Activity
	for _, f := range svc.forums.All() {
		for _, p := range f.Posts {
			if p.AuthorID == authorID {
				act.Posts++
			}
			for _, c := range p.Comments {
				if c.AuthorID == authorID {
					act.Comments++
				}
			}
		}
	}
	return act
}

// patch applies fn to a copy of the forum and persists it, unless fn fails.
func (svc *Service) patch(ctx context.Context, id string, fn func(f *Forum) error) (Forum, error) {
	f, err := svc.forums.Modify(ctx, id, fn)
	if err != nil {
		if err == store.ErrNotFound {
			return Forum{}, ErrNotFound
		}
		if err == ErrPostNotFound || err == ErrCommentNotFound {
			return Forum{}, err
		}
		return Forum{}, pkgerrors.Wrap(err, "updating forum")
	}
	return f, nil
}

package forum

import (
	"time"

	"github.com/trezcool/classportal/core"
)

type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Comments  []Comment `json:"comments"`
}

// Forum owns its posts, which own their comments: neither outlives its parent.
type Forum struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Posts       []Post    `json:"posts"`
}

func forumKey(f *Forum) *string { return &f.ID }

func cloneForum(f Forum) Forum {
	if f.Posts == nil {
		return f
	}
	posts := make([]Post, len(f.Posts))
	for i, p := range f.Posts {
		p.Comments = append([]Comment(nil), p.Comments...)
		posts[i] = p
	}
	f.Posts = posts
	return f
}

func (f Forum) post(id string) (int, bool) {
	for i, p := range f.Posts {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Activity counts what an author wrote across forums.
type Activity struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

type NewForum struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	CreatedBy   string `json:"created_by"`
}

func (nf *NewForum) Validate() error {
	nf.Title = core.CleanString(nf.Title)
	nf.Description = core.CleanString(nf.Description)
	nf.Subject = core.CleanString(nf.Subject)
	nf.CreatedBy = core.CleanString(nf.CreatedBy)
	return core.Validate.Struct(nf)
}

// UpdateForum changes the forum fields that are set.
type UpdateForum struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
}

func (uf *UpdateForum) Validate() error {
	if uf.Description != nil {
		*uf.Description = core.CleanString(*uf.Description)
	}
	if uf.Subject != nil {
		*uf.Subject = core.CleanString(*uf.Subject)
	}
	if uf.Title != nil {
		if *uf.Title = core.CleanString(*uf.Title); *uf.Title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	return nil
}

type NewPost struct {
	AuthorID string `json:"author_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

func (np *NewPost) Validate() error {
	np.AuthorID = core.CleanString(np.AuthorID)
	np.Title = core.CleanString(np.Title)
	np.Content = core.CleanString(np.Content)
	return core.Validate.Struct(np)
}

type NewComment struct {
	AuthorID string `json:"author_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate() error {
	nc.AuthorID = core.CleanString(nc.AuthorID)
	nc.Content = core.CleanString(nc.Content)
	return core.Validate.Struct(nc)
}

package knowledge

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
	Subject   string    `json:"subject"`
	Tags      []string  `json:"tags"`
	Likes     []string  `json:"likes"` // user ids
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func postKey(p *Post) *string { return &p.ID }

func clonePost(p Post) Post {
	p.Tags = append([]string(nil), p.Tags...)
	p.Likes = append([]string(nil), p.Likes...)
	p.Comments = append([]Comment(nil), p.Comments...)
	return p
}

func (p Post) LikedBy(userID string) bool { return core.ContainsString(p.Likes, userID) }

type NewPost struct {
	AuthorID string   `json:"author_id" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Subject  string   `json:"subject"`
	Tags     []string `json:"tags"`
}

func (np *NewPost) Validate() error {
	np.AuthorID = core.CleanString(np.AuthorID)
	np.Title = core.CleanString(np.Title)
	np.Content = core.CleanString(np.Content)
	np.Subject = core.CleanString(np.Subject)
	np.Tags = core.CleanStrings(np.Tags, true /* lower */)
	return core.Validate.Struct(np)
}

// UpdatePost changes the fields that are set.
type UpdatePost struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Subject *string   `json:"subject"`
	Tags    *[]string `json:"tags"`
}

func (up *UpdatePost) Validate() error {
	flds := make([]core.FieldError, 0)
	if up.Title != nil {
		if *up.Title = core.CleanString(*up.Title); *up.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	if up.Content != nil {
		if *up.Content = core.CleanString(*up.Content); *up.Content == "" {
			flds = append(flds, core.FieldError{Field: "content", Error: "this field cannot be blank"})
		}
	}
	if up.Subject != nil {
		*up.Subject = core.CleanString(*up.Subject)
	}
	if up.Tags != nil {
		tags := core.CleanStrings(*up.Tags, true /* lower */)
		up.Tags = &tags
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (up UpdatePost) IsEmpty() bool {
	return up.Title == nil && up.Content == nil && up.Subject == nil && up.Tags == nil
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

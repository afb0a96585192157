package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/forum"
)

type forumApi struct {
	auth *authenticator
	svc  *forum.Service
}

func registerForumAPI(g *echo.Group, auth *authenticator, svc *forum.Service) {
	api := forumApi{auth: auth, svc: svc}
	staff := staffMiddleware(auth)

	g.GET("", api.list)
	g.POST("", api.create, staff)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staff)
	g.DELETE("/:id", api.destroy, staff)

	g.POST("/:id/posts", api.addPost)
	g.DELETE("/:id/posts/:pid", api.deletePost)
	g.POST("/:id/posts/:pid/comments", api.addComment)
	g.DELETE("/:id/posts/:pid/comments/:cid", api.deleteComment)
}

func (api *forumApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	if q.Subject != "" {
		return ctx.JSON(http.StatusOK, api.svc.BySubject(q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.List())
}

func (api *forumApi) create(ctx echo.Context) error {
	var data forum.NewForum
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.CreatedBy = usr.ID

	f, err := api.svc.CreateForum(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *forumApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *forumApi) update(ctx echo.Context) error {
	var data forum.UpdateForum
	if err := bind(ctx, &data); err != nil {
		return err
	}
	f, err := api.svc.UpdateForum(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *forumApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.DeleteForum(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

func (api *forumApi) addPost(ctx echo.Context) error {
	var data forum.NewPost
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AuthorID = usr.ID

	p, err := api.svc.AddPost(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

// post finds the post of the request.
func (api *forumApi) post(ctx echo.Context) (forum.Post, error) {
	f, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return forum.Post{}, err
	}
	for _, p := range f.Posts {
		if p.ID == ctx.Param("pid") {
			return p, nil
		}
	}
	return forum.Post{}, forum.ErrPostNotFound
}

// deletePost lets the author or staff remove a post and its comments.
func (api *forumApi) deletePost(ctx echo.Context) error {
	p, err := api.post(ctx)
	if err != nil {
		return err
	}
	if _, err := api.auth.selfOrStaff(ctx, p.AuthorID); err != nil {
		return err
	}
	if err := api.svc.DeletePost(ctx.Request().Context(), ctx.Param("id"), p.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *forumApi) addComment(ctx echo.Context) error {
	var data forum.NewComment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AuthorID = usr.ID

	c, err := api.svc.AddComment(ctx.Request().Context(), ctx.Param("id"), ctx.Param("pid"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *forumApi) deleteComment(ctx echo.Context) error {
	p, err := api.post(ctx)
	if err != nil {
		return err
	}
	for _, c := range p.Comments {
		if c.ID != ctx.Param("cid") {
			continue
		}
		if _, err := api.auth.selfOrStaff(ctx, c.AuthorID); err != nil {
			return err
		}
		if err := api.svc.DeleteComment(ctx.Request().Context(), ctx.Param("id"), p.ID, c.ID); err != nil {
			return err
		}
		return ctx.NoContent(http.StatusNoContent)
	}
	return forum.ErrCommentNotFound
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/knowledge"
)

const defaultPopularLimit = 10

type knowledgeApi struct {
	auth *authenticator
	svc  *knowledge.Service
}

func registerKnowledgeAPI(g *echo.Group, auth *authenticator, svc *knowledge.Service) {
	api := knowledgeApi{auth: auth, svc: svc}

	g.GET("", api.list)
	g.GET("/popular", api.popular)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/like", api.toggleLike)
	g.POST("/:id/comments", api.comment)
}

// list filters by ?search, ?tag, ?subject or ?author_id, in that order of precedence.
func (api *knowledgeApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	switch {
	case q.Search != "":
		return ctx.JSON(http.StatusOK, api.svc.Search(q.Search))
	case q.Tag != "":
		return ctx.JSON(http.StatusOK, api.svc.ByTag(q.Tag))
	case q.Subject != "":
		return ctx.JSON(http.StatusOK, api.svc.BySubject(q.Subject))
	case ctx.QueryParam("author_id") != "":
		return ctx.JSON(http.StatusOK, api.svc.SharedBy(ctx.QueryParam("author_id")))
	}
	return ctx.JSON(http.StatusOK, api.svc.List())
}

func (api *knowledgeApi) popular(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	if q.Limit == 0 {
		q.Limit = defaultPopularLimit
	}
	return ctx.JSON(http.StatusOK, api.svc.Popular(q.Limit))
}

func (api *knowledgeApi) create(ctx echo.Context) error {
	var data knowledge.NewPost
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AuthorID = usr.ID

	p, err := api.svc.Share(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *knowledgeApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// owned returns the post of the request if the context user wrote it or is staff.
func (api *knowledgeApi) owned(ctx echo.Context) (knowledge.Post, error) {
	p, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return knowledge.Post{}, err
	}
	if _, err := api.auth.selfOrStaff(ctx, p.AuthorID); err != nil {
		return knowledge.Post{}, err
	}
	return p, nil
}

func (api *knowledgeApi) update(ctx echo.Context) error {
	p, err := api.owned(ctx)
	if err != nil {
		return err
	}
	var data knowledge.UpdatePost
	if err := bind(ctx, &data); err != nil {
		return err
	}
	p, err = api.svc.Update(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *knowledgeApi) destroy(ctx echo.Context) error {
	p, err := api.owned(ctx)
	if err != nil {
		return err
	}
	ok, err := api.svc.Delete(ctx.Request().Context(), p.ID)
	return deleted(ctx, ok, err)
}

func (api *knowledgeApi) toggleLike(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.ToggleLike(ctx.Request().Context(), ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *knowledgeApi) comment(ctx echo.Context) error {
	var data knowledge.NewComment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AuthorID = usr.ID

	c, err := api.svc.Comment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

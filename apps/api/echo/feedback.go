package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/feedback"
)

type feedbackApi struct {
	auth *authenticator
	svc  *feedback.Service
}

func registerFeedbackAPI(g *echo.Group, auth *authenticator, svc *feedback.Service) {
	api := feedbackApi{auth: auth, svc: svc}
	admin := adminMiddleware(auth)

	g.POST("", api.create)
	g.GET("", api.list, admin)
	g.GET("/mine", api.mine)
	g.GET("/stats", api.stats, admin)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/respond", api.respond, admin)
	g.PUT("/:id/status", api.setStatus, admin)
	g.DELETE("/:id", api.destroy, admin)
}

type StatusRequest struct {
	Status string `json:"status"`
}

func public(all []feedback.Feedback) []feedback.Feedback {
	out := make([]feedback.Feedback, len(all))
	for i, f := range all {
		out[i] = f.Public()
	}
	return out
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.StudentID = usr.ID

	f, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

// list returns the feedback, filtered by ?status or ?type. Anonymous feedback is returned without its student.
func (api *feedbackApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	switch {
	case q.Status != "":
		return ctx.JSON(http.StatusOK, public(api.svc.ByStatus(q.Status)))
	case q.Type != "":
		return ctx.JSON(http.StatusOK, public(api.svc.ByType(q.Type)))
	}
	return ctx.JSON(http.StatusOK, public(api.svc.List()))
}

func (api *feedbackApi) mine(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.ByStudent(usr.ID))
}

func (api *feedbackApi) stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Stats())
}

func (api *feedbackApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	switch {
	case f.StudentID == usr.ID:
		return ctx.JSON(http.StatusOK, f)
	case usr.IsAdmin():
		return ctx.JSON(http.StatusOK, f.Public())
	}
	return errHttpNotFound
}

func (api *feedbackApi) respond(ctx echo.Context) error {
	var data feedback.NewResponse
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AdminID = usr.ID

	f, err := api.svc.Respond(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f.Public())
}

func (api *feedbackApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	f, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f.Public())
}

func (api *feedbackApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

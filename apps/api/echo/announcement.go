package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/announcement"
	"github.com/trezcool/classportal/core/user"
)

type announcementApi struct {
	auth *authenticator
	svc  *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, auth *authenticator, svc *announcement.Service) {
	api := announcementApi{auth: auth, svc: svc}
	staff := staffMiddleware(auth)

	g.GET("", api.list)
	g.POST("", api.create, staff)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staff)
	g.DELETE("/:id", api.destroy, staff)
}

// list returns every announcement to staff, and the ones addressed to students otherwise.
func (api *announcementApi) list(ctx echo.Context) error {
	if api.auth.isStaff(ctx) {
		return ctx.JSON(http.StatusOK, api.svc.List())
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	var role string
	if usr.IsStudent() {
		role = user.RoleStudent
	}
	return ctx.JSON(http.StatusOK, api.svc.ForAudience(role))
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AuthorID = usr.ID

	a, err := api.svc.Post(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) update(ctx echo.Context) error {
	var data announcement.UpdateAnnouncement
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/analytics"
)

type analyticsApi struct {
	auth   *authenticator
	engine *analytics.Engine
}

func registerAnalyticsAPI(g *echo.Group, auth *authenticator, engine *analytics.Engine) {
	api := analyticsApi{auth: auth, engine: engine}
	staff := staffMiddleware(auth)

	g.GET("/overview", api.overview, staff)
	g.GET("/students", api.students, staff)
	g.GET("/students/:id", api.student)
}

func (api *analyticsApi) overview(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.engine.Overview())
}

func (api *analyticsApi) students(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.engine.Students())
}

func (api *analyticsApi) student(ctx echo.Context) error {
	if _, err := api.auth.selfOrStaff(ctx, ctx.Param("id")); err != nil {
		return err
	}
	si, err := api.engine.Student(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, si)
}

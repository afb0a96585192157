package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportApi struct {
	auth *authenticator
	gen  *report.Generator
}

func registerReportAPI(g *echo.Group, auth *authenticator, gen *report.Generator) {
	api := reportApi{auth: auth, gen: gen}
	staff := staffMiddleware(auth)

	g.GET("/students/:id", api.student)
	g.GET("/class", api.class, staff)
	g.GET("/class.xlsx", api.classXLSX, staff)
}

func (api *reportApi) student(ctx echo.Context) error {
	if _, err := api.auth.selfOrStaff(ctx, ctx.Param("id")); err != nil {
		return err
	}
	r, err := api.gen.Student(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) class(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.gen.Class())
}

func (api *reportApi) classXLSX(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := report.ExportXLSX(&buf, api.gen.Class()); err != nil {
		return err
	}
	filename := "class-report-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

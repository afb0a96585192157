package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/grade"
)

type gradeApi struct {
	auth *authenticator
	svc  *grade.Service
}

func registerGradeAPI(g *echo.Group, auth *authenticator, svc *grade.Service) {
	api := gradeApi{auth: auth, svc: svc}
	staff := staffMiddleware(auth)

	g.GET("", api.list, staff)
	g.POST("", api.create, staff)
	g.GET("/class", api.class, staff)
	g.GET("/subjects", api.subjects)
	g.GET("/students/:sid", api.byStudent)
	g.GET("/students/:sid/average", api.average)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staff)
	g.DELETE("/:id", api.destroy, staff)
}

type (
	StudentAverageResponse struct {
		StudentID string                 `json:"student_id"`
		Average   int                    `json:"average"`
		Letter    string                 `json:"letter"`
		Subjects  []grade.SubjectAverage `json:"subjects"`
	}

	ClassAverageResponse struct {
		Subject      string         `json:"subject,omitempty"`
		Average      int            `json:"average"`
		Distribution map[string]int `json:"distribution"`
	}
)

func (api *gradeApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	switch {
	case q.StudentID != "" && q.Subject != "":
		return ctx.JSON(http.StatusOK, api.svc.ByStudentAndSubject(q.StudentID, q.Subject))
	case q.StudentID != "":
		return ctx.JSON(http.StatusOK, api.svc.ByStudent(q.StudentID))
	case q.Subject != "":
		return ctx.JSON(http.StatusOK, api.svc.BySubject(q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.All())
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := bind(ctx, &data); err != nil {
		return err
	}
	g, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) class(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	return ctx.JSON(http.StatusOK, ClassAverageResponse{
		Subject:      q.Subject,
		Average:      api.svc.ClassAverage(q.Subject),
		Distribution: api.svc.Distribution(q.Subject),
	})
}

func (api *gradeApi) subjects(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Subjects())
}

func (api *gradeApi) byStudent(ctx echo.Context) error {
	sid := ctx.Param("sid")
	if _, err := api.auth.selfOrStaff(ctx, sid); err != nil {
		return err
	}
	var q listQuery
	q.Bind(ctx)
	if q.Subject != "" {
		return ctx.JSON(http.StatusOK, api.svc.ByStudentAndSubject(sid, q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.ByStudent(sid))
}

func (api *gradeApi) average(ctx echo.Context) error {
	sid := ctx.Param("sid")
	if _, err := api.auth.selfOrStaff(ctx, sid); err != nil {
		return err
	}
	resp := StudentAverageResponse{
		StudentID: sid,
		Subjects:  api.svc.SubjectAverages(sid),
	}
	if len(resp.Subjects) > 0 {
		resp.Average = api.svc.AverageGrade(sid)
		resp.Letter = grade.Letter(float64(resp.Average))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	if _, err := api.auth.selfOrStaff(ctx, g.StudentID); err != nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data grade.UpdateGrade
	if err := bind(ctx, &data); err != nil {
		return err
	}
	g, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

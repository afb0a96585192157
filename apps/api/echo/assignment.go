package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/assignment"
)

const defaultUpcomingWindow = 7 * 24 * time.Hour

type assignmentApi struct {
	auth *authenticator
	svc  *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, auth *authenticator, svc *assignment.Service) {
	api := assignmentApi{auth: auth, svc: svc}
	staff := staffMiddleware(auth)

	g.GET("", api.list)
	g.GET("/upcoming", api.upcoming)
	g.POST("", api.create, staff)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staff)
	g.DELETE("/:id", api.destroy, staff)

	g.GET("/:id/submissions", api.submissions, staff)
	g.POST("/:id/submissions", api.submit)
	g.GET("/:id/submissions/mine", api.mySubmission)
	g.GET("/:id/completion", api.completion, staff)

	sg := g.Group("/submissions")
	sg.GET("/mine", api.mySubmissions)
	sg.GET("/:sid", api.retrieveSubmission)
	sg.PUT("/:sid", api.resubmit)
	sg.POST("/:sid/grade", api.grade, staff)
	sg.DELETE("/:sid", api.destroySubmission, staff)
}

func (api *assignmentApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	if q.Subject != "" {
		return ctx.JSON(http.StatusOK, api.svc.BySubject(q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.List())
}

// upcoming lists the assignments due within ?days (7 by default).
func (api *assignmentApi) upcoming(ctx echo.Context) error {
	window := defaultUpcomingWindow
	if days, err := strconv.Atoi(ctx.QueryParam("days")); err == nil && days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	return ctx.JSON(http.StatusOK, api.svc.Upcoming(time.Now(), window))
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.CreatedBy = usr.ID

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	if _, err := api.svc.Get(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.SubmissionsFor(ctx.Param("id")))
}

// submit records a submission by the context user.
func (api *assignmentApi) submit(ctx echo.Context) error {
	var data assignment.NewSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.AssignmentID = ctx.Param("id")
	data.UserID = usr.ID

	sub, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) mySubmission(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Submission(ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) mySubmissions(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.SubmissionsBy(usr.ID))
}

type CompletionResponse struct {
	AssignmentID string  `json:"assignment_id"`
	Submitted    int     `json:"submitted"`
	Students     int     `json:"students"`
	Rate         float64 `json:"rate"`
}

func (api *assignmentApi) completion(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.svc.Get(id); err != nil {
		return err
	}
	students := len(api.auth.users.Students())
	return ctx.JSON(http.StatusOK, CompletionResponse{
		AssignmentID: id,
		Submitted:    len(api.svc.SubmissionsFor(id)),
		Students:     students,
		Rate:         api.svc.CompletionRate(id, students),
	})
}

// submission returns the submission of the request if the context user owns it or is staff.
func (api *assignmentApi) submission(ctx echo.Context) (assignment.Submission, error) {
	sub, err := api.svc.GetSubmission(ctx.Param("sid"))
	if err != nil {
		return assignment.Submission{}, err
	}
	if _, err := api.auth.selfOrStaff(ctx, sub.UserID); err != nil {
		return assignment.Submission{}, errHttpNotFound
	}
	return sub, nil
}

func (api *assignmentApi) retrieveSubmission(ctx echo.Context) error {
	sub, err := api.submission(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

type ResubmitRequest struct {
	Files []assignment.Attachment `json:"files"`
	Note  string                  `json:"note"`
}

func (api *assignmentApi) resubmit(ctx echo.Context) error {
	sub, err := api.submission(ctx)
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if sub.UserID != usr.ID {
		return errHttpForbidden
	}

	var data ResubmitRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err = api.svc.Resubmit(ctx.Request().Context(), sub.ID, data.Files, data.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	var data assignment.GradeInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.GradeSubmission(ctx.Request().Context(), ctx.Param("sid"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) destroySubmission(ctx echo.Context) error {
	ok, err := api.svc.DeleteSubmission(ctx.Request().Context(), ctx.Param("sid"))
	return deleted(ctx, ok, err)
}

package echoapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/material"
)

const downloadURLExpiry = 15 * time.Minute

type materialApi struct {
	auth        *authenticator
	svc         *material.Service
	assignments *assignment.Service
}

func registerMaterialAPI(g *echo.Group, auth *authenticator, svc *material.Service, assignments *assignment.Service) {
	api := materialApi{auth: auth, svc: svc, assignments: assignments}
	staff := staffMiddleware(auth)

	g.GET("", api.list)
	g.POST("", api.upload, staff)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, staff)
	g.DELETE("/:id", api.destroy, staff)
	g.GET("/:id/assignments", api.assignmentsUsing)
	g.GET("/:id/versions", api.versions)
	g.POST("/:id/versions", api.addVersion, staff)
	g.GET("/:id/download", api.download)
	g.GET("/:id/url", api.downloadURL)
}

func (api *materialApi) list(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	switch {
	case q.Search != "":
		return ctx.JSON(http.StatusOK, api.svc.Search(q.Search))
	case q.Subject != "":
		return ctx.JSON(http.StatusOK, api.svc.BySubject(q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.List())
}

// formFile returns the "file" part of a multipart request, or nil when there is none.
// The caller closes the returned file.
func formFile(ctx echo.Context) (*material.File, io.Closer, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil, nil
		}
		return nil, nil, errBadRequestBody
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &material.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	}, f, nil
}

// version reads ?version, 0 (the current version) when absent.
func version(ctx echo.Context) (int, error) {
	v := ctx.QueryParam("version")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "version", Error: "must be a positive number"})
	}
	return n, nil
}

// upload publishes a material from a multipart form: title, description, subject, kind, url, note and file.
func (api *materialApi) upload(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data := material.NewMaterial{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		Subject:     ctx.FormValue("subject"),
		Kind:        ctx.FormValue("kind"),
		URL:         ctx.FormValue("url"),
		Note:        ctx.FormValue("note"),
		UploadedBy:  usr.ID,
	}
	file, closer, err := formFile(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	m, err := api.svc.Upload(ctx.Request().Context(), data, file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *materialApi) addVersion(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	file, closer, err := formFile(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	v, err := api.svc.AddVersion(ctx.Request().Context(), ctx.Param("id"), file, ctx.FormValue("note"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := bind(ctx, &data); err != nil {
		return err
	}
	m, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

// destroy removes a material with its files. Assignments keep referencing it.
func (api *materialApi) destroy(ctx echo.Context) error {
	ok, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	return deleted(ctx, ok, err)
}

func (api *materialApi) assignmentsUsing(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.assignments.ReferencingMaterial(ctx.Param("id")))
}

func (api *materialApi) versions(ctx echo.Context) error {
	if _, err := api.svc.Get(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Versions(ctx.Param("id")))
}

func (api *materialApi) download(ctx echo.Context) error {
	n, err := version(ctx)
	if err != nil {
		return err
	}
	v, rc, err := api.svc.Open(ctx.Request().Context(), ctx.Param("id"), n)
	if err != nil {
		return err
	}
	defer rc.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(v.Filename))
	return ctx.Stream(http.StatusOK, v.ContentType, rc)
}

type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (api *materialApi) downloadURL(ctx echo.Context) error {
	n, err := version(ctx)
	if err != nil {
		return err
	}
	url, err := api.svc.DownloadURL(ctx.Request().Context(), ctx.Param("id"), n, downloadURLExpiry)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DownloadURLResponse{URL: url, ExpiresAt: time.Now().Add(downloadURLExpiry).UTC()})
}

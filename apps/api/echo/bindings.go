package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/user"
)

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	// listQuery holds the optional filters shared by the list endpoints.
	listQuery struct {
		Subject   string `query:"subject"`
		StudentID string `query:"student_id"`
		Tag       string `query:"tag"`
		Search    string `query:"search"`
		Status    string `query:"status"`
		Type      string `query:"type"`
		Limit     int    `query:"limit"`
	}
)

// bind decodes the request into i.
func bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return errBadRequestBody
	}
	return nil
}

func (q *listQuery) Bind(ctx echo.Context) {
	params := ctx.QueryParams()
	q.Subject = core.CleanString(params.Get("subject"))
	q.StudentID = core.CleanString(params.Get("student_id"))
	q.Tag = core.CleanString(params.Get("tag"), true /* lower */)
	q.Search = core.CleanString(params.Get("search"))
	q.Status = core.CleanString(params.Get("status"), true /* lower */)
	q.Type = core.CleanString(params.Get("type"), true /* lower */)
	if n, err := strconv.Atoi(params.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
}

// deleted answers a delete: 204 when something was removed, 404 otherwise.
func deleted(ctx echo.Context, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

// bindUserFilter reads the user list filters: search, role (repeatable), is_active, created_from and
// created_to (RFC 3339).
func bindUserFilter(ctx echo.Context) (user.QueryFilter, error) {
	params := ctx.QueryParams()
	filter := user.QueryFilter{
		Search: params.Get("search"),
		Roles:  params["role"],
	}
	flds := make([]core.FieldError, 0)

	if v := params.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			flds = append(flds, core.FieldError{Field: "is_active", Error: "must be true or false"})
		} else {
			filter.IsActive = &active
		}
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"created_from", &filter.CreatedFrom},
		{"created_to", &filter.CreatedTo},
	} {
		if v := params.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				flds = append(flds, core.FieldError{Field: p.name, Error: "must be an RFC 3339 date"})
				continue
			}
			*p.dst = t
		}
	}
	if len(flds) > 0 {
		return user.QueryFilter{}, core.NewValidationError(nil, flds...)
	}
	filter.Clean()
	return filter, nil
}

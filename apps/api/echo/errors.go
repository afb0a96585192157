package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/analytics"
	"github.com/trezcool/classportal/core/announcement"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/collaboration"
	"github.com/trezcool/classportal/core/feedback"
	"github.com/trezcool/classportal/core/forum"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/knowledge"
	"github.com/trezcool/classportal/core/material"
	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/store"
	"github.com/trezcool/classportal/core/user"
	"github.com/trezcool/classportal/storage/blob"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadRequestBody       = echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	errPresignUnsupported   = echo.NewHTTPError(http.StatusNotImplemented, "download links are not supported by this file storage")
)

// notFoundErrs are the sentinel errors answered with a 404.
var notFoundErrs = []error{
	store.ErrNotFound,
	user.ErrNotFound,
	announcement.ErrNotFound,
	assignment.ErrNotFound,
	assignment.ErrSubmissionNotFound,
	grade.ErrNotFound,
	feedback.ErrNotFound,
	forum.ErrNotFound,
	forum.ErrPostNotFound,
	forum.ErrCommentNotFound,
	knowledge.ErrNotFound,
	collaboration.ErrGroupNotFound,
	collaboration.ErrReviewNotFound,
	material.ErrNotFound,
	material.ErrVersionNotFound,
	report.ErrStudentNotFound,
	analytics.ErrStudentNotFound,
	blob.ErrNotFound,
}

func isNotFound(err error) bool {
	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, auth *authenticator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, core.Translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if len(origErr.Fields) > 0 {
				message = core.TranslateErrors(origErr, core.Translator)
			} else {
				message = origErr.Error()
			}
		default:
			if isNotFound(err) {
				code = http.StatusNotFound
				message = errors.Cause(err).Error()
				break
			}
			if errors.Is(err, blob.ErrUnsupported) {
				code = errPresignUnsupported.Code
				message = errPresignUnsupported.Message
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := auth.contextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

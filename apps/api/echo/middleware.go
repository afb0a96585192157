package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core"
)

// adminMiddleware lets admins through. When roles are given, the admin must also hold one of them.
func adminMiddleware(a *authenticator, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := a.contextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsAdmin && hasAnyRole(claims.Roles, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// staffMiddleware lets teachers and admins through.
func staffMiddleware(a *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := a.contextClaims(ctx); err != nil {
				return err
			}
			if a.isStaff(ctx) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func hasAnyRole(held, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, role := range wanted {
		if core.ContainsString(held, role) {
			return true
		}
	}
	return false
}

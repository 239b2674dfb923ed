package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/policy"
)

// Authorize rejects the request unless the principal set by JWTAuth may
// perform op.  A missing principal is 401, a role outside the operation's
// set is 403.  Services run the same check again, so a route wired without
// this middleware is still gated.
func Authorize(op policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := policy.Permission(Principal(c), op).Err(); err != nil {
				return err
			}
			return next(c)
		}
	}
}

package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/policy"
)

// Authenticator turns a raw bearer token into the caller's principal.  The
// auth service implements it by verifying the token and reading the user's
// current role from storage.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*policy.Principal, error)
}

// JWTAuth validates the Bearer access token and stores the principal in the
// context under "principal", with "user_id" and "role" alongside for the
// rate limiter and request logs.  Failures are returned as errors and
// rendered by the central error handler.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return apperr.Unauthenticated("missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if raw == "" {
				return apperr.Unauthenticated("missing bearer token")
			}
			p, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

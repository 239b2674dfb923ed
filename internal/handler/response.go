package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/policy"
)

// requestTimeout bounds every handler's storage work.
const requestTimeout = 5 * time.Second

// envelope is the success body shared by every endpoint.  Data is null
// when there is nothing to return.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func principal(c echo.Context) *policy.Principal { return middleware.Principal(c) }

// bind decodes the request into dst.  Malformed input is a validation
// error like any other bad field.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body", nil)
	}
	return nil
}

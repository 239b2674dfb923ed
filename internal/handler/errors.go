package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/store-rating/internal/apperr"
)

// errorBody is the failure envelope.  Errors carries per-field messages for
// validation failures only.
type errorBody struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Success    bool              `json:"success"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// ErrorHandler renders every error returned by a handler or middleware.
// Domain errors keep their message; anything unexpected is logged and
// answered with a generic 500.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body := errorBody{StatusCode: http.StatusInternalServerError, Message: "internal server error"}

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae) && ae.Kind != apperr.KindInternal:
			body.StatusCode = ae.Kind.Status()
			body.Message = ae.Message
			body.Errors = ae.Fields
		case errors.As(err, &he):
			body.StatusCode = he.Code
			if msg, ok := he.Message.(string); ok {
				body.Message = msg
			} else {
				body.Message = http.StatusText(he.Code)
			}
			if he.Code >= http.StatusInternalServerError {
				logger.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
			}
		default:
			logger.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(body.StatusCode)
		} else {
			err = c.JSON(body.StatusCode, body)
		}
		if err != nil {
			logger.Errorf("write error response: %v", err)
		}
	}
}

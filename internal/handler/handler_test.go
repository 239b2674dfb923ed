package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/logging"
)

func render(t *testing.T, err error) (int, errorBody, string) {
	t.Helper()
	var logs bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	ErrorHandler(logging.NewWithOutput("test", "error", &logs))(err, e.NewContext(req, rec))

	var b errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return rec.Code, b, logs.String()
}

func TestErrorHandlerDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("validation failed", map[string]string{"name": "is required"}), http.StatusBadRequest},
		{apperr.Unauthenticated("authentication required"), http.StatusUnauthorized},
		{apperr.Forbidden("nope"), http.StatusForbidden},
		{apperr.NotFound("store not found"), http.StatusNotFound},
		{apperr.Conflict("email already exists"), http.StatusConflict},
	}
	for _, tc := range cases {
		code, b, logs := render(t, tc.err)
		assert.Equal(t, tc.status, code)
		assert.Equal(t, tc.status, b.StatusCode)
		assert.False(t, b.Success)
		assert.Equal(t, tc.err.(*apperr.Error).Message, b.Message)
		assert.Empty(t, logs)
	}

	_, b, _ := render(t, apperr.Validation("validation failed", map[string]string{"name": "is required"}))
	assert.Equal(t, map[string]string{"name": "is required"}, b.Errors)
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	code, b, logs := render(t, apperr.Internal(errors.New("dial tcp: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", b.Message)
	assert.Contains(t, logs, "connection refused")

	code, b, _ = render(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", b.Message)
}

func TestErrorHandlerEchoErrors(t *testing.T) {
	code, b, _ := render(t, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", b.Message)

	code, b, _ = render(t, echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later"))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many requests, please try again later", b.Message)
}

func TestRefreshCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	CookieConfig{Secure: true, TTL: 7 * 24 * time.Hour}.set(c, "raw-token")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "refreshToken", ck.Name)
	assert.Equal(t, "raw-token", ck.Value)
	assert.True(t, ck.Secure)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "from-client"})
	assert.Equal(t, "from-client", refreshFromCookie(e.NewContext(req, httptest.NewRecorder())))
	assert.Empty(t, refreshFromCookie(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())))
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/v1/api"
)

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

func (cc CookieConfig) set(c echo.Context, raw string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     refreshCookiePath,
		MaxAge:   int(cc.TTL / time.Second),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshFromCookie(c echo.Context) string {
	ck, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/service"
)

// AuthHandler serves registration, login, session and profile endpoints
// for every route family.
type AuthHandler struct {
	Auth   *service.AuthService
	Cookie CookieConfig
}

func NewAuthHandler(auth *service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookie: cookie}
}

// Register returns a handler that self-registers through scope, sets the
// refresh cookie and answers with the user and access token.
func (h *AuthHandler) Register(scope service.Scope) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in service.RegisterInput
		if err := bind(c, &in); err != nil {
			return err
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		sess, err := h.Auth.Register(ctx, scope, in)
		if err != nil {
			return err
		}
		h.Cookie.set(c, sess.RefreshToken)
		return respond(c, http.StatusCreated, "registered successfully", sess)
	}
}

// Login returns a handler that authenticates through scope.
func (h *AuthHandler) Login(scope service.Scope) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in service.LoginInput
		if err := bind(c, &in); err != nil {
			return err
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		sess, err := h.Auth.Login(ctx, scope, in)
		if err != nil {
			return err
		}
		h.Cookie.set(c, sess.RefreshToken)
		return respond(c, http.StatusOK, "login successful", sess)
	}
}

// Refresh rotates the refresh token read from the cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshFromCookie(c)
	if raw == "" {
		return apperr.Unauthenticated("refresh token missing")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		h.Cookie.clear(c)
		return err
	}
	h.Cookie.set(c, sess.RefreshToken)
	return respond(c, http.StatusOK, "token refreshed", sess)
}

// Logout revokes the stored refresh token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, principal(c)); err != nil {
		return err
	}
	h.Cookie.clear(c)
	return respond(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Profile(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile fetched", u)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var in service.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateProfile(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", u)
}

func (h *AuthHandler) OwnerProfile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.OwnerProfile(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile fetched", u)
}

func (h *AuthHandler) UpdateOwnerProfile(c echo.Context) error {
	var in service.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateOwnerProfile(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", u)
}

// ChangePassword also ends the current refresh session, so the cookie goes
// with it.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var in service.PasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, principal(c), in); err != nil {
		return err
	}
	h.Cookie.clear(c)
	return respond(c, http.StatusOK, "password updated", nil)
}

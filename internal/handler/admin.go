package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/service"
)

// AdminHandler serves the SYSTEM_ADMIN dashboard and user management.
type AdminHandler struct {
	Admin     *service.AdminService
	Directory *service.DirectoryService
	Auth      *service.AuthService
}

func NewAdminHandler(admin *service.AdminService, dir *service.DirectoryService, auth *service.AuthService) *AdminHandler {
	return &AdminHandler{Admin: admin, Directory: dir, Auth: auth}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Admin.Dashboard(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "dashboard fetched", d)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q service.UserQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Directory.ListUsers(ctx, principal(c), q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "users fetched", page)
}

// CreateUser adds an account with an optional role.  No tokens are issued.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var in service.CreateUserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.AdminCreateUser(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "user created", u)
}

func (h *AdminHandler) UpdateRole(c echo.Context) error {
	var in service.RoleInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Admin.UpdateUserRole(ctx, principal(c), c.Param("userId"), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user role updated", u)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admin.DeleteUser(ctx, principal(c), c.Param("userId")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user deleted", nil)
}

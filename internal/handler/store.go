package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/service"
)

// StoreHandler serves the public directory, the admin store management and
// the owner's own store endpoints.
type StoreHandler struct {
	Stores    *service.StoreService
	Directory *service.DirectoryService
}

func NewStoreHandler(stores *service.StoreService, dir *service.DirectoryService) *StoreHandler {
	return &StoreHandler{Stores: stores, Directory: dir}
}

// List handles GET /stores with name, email, address, sortBy, sortOrder,
// page and limit query parameters.
func (h *StoreHandler) List(c echo.Context) error {
	var q service.StoreQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Directory.ListStores(ctx, q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "stores fetched", page)
}

func (h *StoreHandler) Search(c echo.Context) error {
	var q service.SearchQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Directory.SearchStores(ctx, q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "search results fetched", res)
}

func (h *StoreHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Stores.GetStore(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "store fetched", d)
}

// Create is the admin path: the body names the owner.
func (h *StoreHandler) Create(c echo.Context) error {
	var in service.AdminStoreInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Stores.AdminCreateStore(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "store created", st)
}

func (h *StoreHandler) Update(c echo.Context) error {
	var in service.StorePatchInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Stores.UpdateStore(ctx, principal(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "store updated", st)
}

func (h *StoreHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Stores.AdminDeleteStore(ctx, principal(c), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "store deleted", nil)
}

func (h *StoreHandler) OwnerDashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Stores.OwnerDashboard(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "dashboard fetched", d)
}

func (h *StoreHandler) CreateOwn(c echo.Context) error {
	var in service.StoreInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Stores.CreateOwnStore(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "store created", st)
}

func (h *StoreHandler) UpdateOwn(c echo.Context) error {
	var in service.StorePatchInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Stores.UpdateOwnStore(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "store updated", st)
}

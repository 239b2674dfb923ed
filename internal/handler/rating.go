package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/service"
)

type RatingHandler struct {
	Ratings *service.RatingService
}

func NewRatingHandler(r *service.RatingService) *RatingHandler { return &RatingHandler{Ratings: r} }

func (h *RatingHandler) Submit(c echo.Context) error {
	var in service.RatingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rt, err := h.Ratings.Submit(ctx, principal(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "rating submitted", rt)
}

func (h *RatingHandler) Update(c echo.Context) error {
	var in service.RatingUpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rt, err := h.Ratings.Update(ctx, principal(c), c.Param("ratingId"), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "rating updated", rt)
}

func (h *RatingHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Ratings.ListOwn(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ratings fetched", out)
}

func (h *RatingHandler) ForOwnStore(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Ratings.StoreRatings(ctx, principal(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "store ratings fetched", out)
}

// Lookup answers with data null when the caller has not rated the store.
func (h *RatingHandler) Lookup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rt, err := h.Ratings.UserStoreRating(ctx, principal(c), c.Param("storeId"))
	if err != nil {
		return err
	}
	if rt == nil {
		return respond(c, http.StatusOK, "no rating found", nil)
	}
	return respond(c, http.StatusOK, "rating fetched", rt)
}

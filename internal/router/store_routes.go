package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/policy"
)

// registerStores mounts /stores.  The public reads go through the Redis
// response cache; every write purges it.
func registerStores(api *echo.Group, d Deps, authn echo.MiddlewareFunc) {
	g := api.Group("/stores")
	cache := d.Cache.Middleware()
	purge := d.Purge

	g.GET("", d.Stores.List, cache)
	g.GET("/search", d.Stores.Search, cache)
	g.GET("/owner/dashboard", d.Stores.OwnerDashboard, authn, middleware.Authorize(policy.OpOwnerDashboard))
	g.GET("/:id", d.Stores.Get, cache)

	g.POST("", d.Stores.Create, authn, middleware.Authorize(policy.OpStoreCreate), purge)
	g.PUT("/:id", d.Stores.Update, authn, middleware.Authorize(policy.OpStoreUpdate), purge)
	g.DELETE("/:id", d.Stores.Delete, authn, middleware.Authorize(policy.OpStoreDelete), purge)
}

// registerRatings mounts /ratings.  A new or changed rating moves store
// averages, so writes purge the store cache.
func registerRatings(api *echo.Group, d Deps, authn echo.MiddlewareFunc) {
	g := api.Group("/ratings", authn)
	purge := d.Purge

	g.POST("", d.Ratings.Submit, middleware.Authorize(policy.OpRatingSubmit), purge)
	g.PUT("/:ratingId", d.Ratings.Update, middleware.Authorize(policy.OpRatingUpdate), purge)
	g.GET("/my-ratings", d.Ratings.Mine, middleware.Authorize(policy.OpRatingListOwn))
	g.GET("/store-ratings", d.Ratings.ForOwnStore, middleware.Authorize(policy.OpRatingListStore))
	g.GET("/store/:storeId", d.Ratings.Lookup, middleware.Authorize(policy.OpRatingLookup))
}

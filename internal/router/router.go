// Package router wires the handlers onto echo under /v1/api.  Public routes
// carry no auth middleware; protected routes run JWTAuth and then
// Authorize with the operation the handler performs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/middleware"
)

const Prefix = "/v1/api"

// Deps collects what the routes need.  Cache may be a disabled cache and
// RateLimit may be nil.  Purge runs on every write that changes a cached
// store view and defaults to Cache.PurgeOnWrite.
type Deps struct {
	Auth    *handler.AuthHandler
	Stores  *handler.StoreHandler
	Ratings *handler.RatingHandler
	Admin   *handler.AdminHandler

	Authn     middleware.Authenticator
	Cache     *middleware.ResponseCache
	RateLimit echo.MiddlewareFunc
	Purge     echo.MiddlewareFunc
	DB        handler.Pinger
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	if d.RateLimit == nil {
		d.RateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if d.Purge == nil {
		d.Purge = d.Cache.PurgeOnWrite()
	}
	api := e.Group(Prefix)
	api.GET("/health", handler.Health(d.DB))

	authn := middleware.JWTAuth(d.Authn)
	registerUsers(api, d, authn)
	registerStoreOwners(api, d, authn)
	registerAdmin(api, d, authn)
	registerStores(api, d, authn)
	registerRatings(api, d, authn)
}

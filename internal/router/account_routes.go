package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/service"
)

// registerUsers mounts /users.  Login here accepts every role; register
// always creates a NORMAL_USER.
func registerUsers(api *echo.Group, d Deps, authn echo.MiddlewareFunc) {
	g := api.Group("/users")
	g.POST("/register", d.Auth.Register(service.ScopeUser), d.RateLimit)
	g.POST("/login", d.Auth.Login(service.ScopeUser), d.RateLimit)
	g.POST("/refresh", d.Auth.Refresh, d.RateLimit)

	g.POST("/logout", d.Auth.Logout, authn, middleware.Authorize(policy.OpLogout))
	g.GET("/profile", d.Auth.Profile, authn, middleware.Authorize(policy.OpProfileRead))
	g.PUT("/profile", d.Auth.UpdateProfile, authn, middleware.Authorize(policy.OpProfileUpdate), d.Purge)
	g.PUT("/password", d.Auth.ChangePassword, authn, middleware.Authorize(policy.OpPasswordChange))
}

// registerStoreOwners mounts /storeowner.
func registerStoreOwners(api *echo.Group, d Deps, authn echo.MiddlewareFunc) {
	g := api.Group("/storeowner")
	g.POST("/register", d.Auth.Register(service.ScopeStoreOwner), d.RateLimit)
	g.POST("/login", d.Auth.Login(service.ScopeStoreOwner), d.RateLimit)

	g.GET("/profile", d.Auth.OwnerProfile, authn, middleware.Authorize(policy.OpOwnerProfileRead))
	g.PUT("/profile", d.Auth.UpdateOwnerProfile, authn, middleware.Authorize(policy.OpOwnerProfileUpdate), d.Purge)
	g.POST("/store", d.Stores.CreateOwn, authn, middleware.Authorize(policy.OpOwnStoreCreate), d.Purge)
	g.PUT("/store", d.Stores.UpdateOwn, authn, middleware.Authorize(policy.OpOwnStoreUpdate), d.Purge)
}

// registerAdmin mounts /admin.
func registerAdmin(api *echo.Group, d Deps, authn echo.MiddlewareFunc) {
	g := api.Group("/admin")
	g.POST("/register", d.Auth.Register(service.ScopeAdmin), d.RateLimit)
	g.POST("/login", d.Auth.Login(service.ScopeAdmin), d.RateLimit)

	g.GET("/dashboard", d.Admin.Dashboard, authn, middleware.Authorize(policy.OpAdminDashboard))
	g.GET("/users", d.Admin.ListUsers, authn, middleware.Authorize(policy.OpUserList))
	g.POST("/users", d.Admin.CreateUser, authn, middleware.Authorize(policy.OpUserCreate))
	g.PUT("/users/:userId/role", d.Admin.UpdateRole, authn, middleware.Authorize(policy.OpUserRoleUpdate), d.Purge)
	g.DELETE("/users/:userId", d.Admin.DeleteUser, authn, middleware.Authorize(policy.OpUserDelete), d.Purge)
}

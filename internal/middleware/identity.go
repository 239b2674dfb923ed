package middleware

// identity.go keeps the context keys shared by the auth, role and rate
// limit middleware in one place.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/policy"
)

const (
	principalKey = "principal"
	userIDKey    = "user_id"
	roleKey      = "role"
)

func setPrincipal(c echo.Context, p *policy.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, p.UserID)
	c.Set(roleKey, string(p.Role))
}

// Principal returns the authenticated caller, or nil on a public route.
func Principal(c echo.Context) *policy.Principal {
	p, _ := c.Get(principalKey).(*policy.Principal)
	return p
}

// userID returns the caller's id, or "anon" when nobody is authenticated.
func userID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// Package policy decides whether a principal may perform an operation.  It
// has no dependency on HTTP or storage so every rule can be tested on its
// own; the role middleware and the services both consult it.
package policy

import (
	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Role   model.Role
}

// Operation names a gated action.
type Operation string

const (
	OpProfileRead    Operation = "profile:read"
	OpProfileUpdate  Operation = "profile:update"
	OpPasswordChange Operation = "profile:password"
	OpLogout         Operation = "session:logout"

	OpOwnerProfileRead   Operation = "owner:profile:read"
	OpOwnerProfileUpdate Operation = "owner:profile:update"
	OpOwnStoreCreate     Operation = "owner:store:create"
	OpOwnStoreUpdate     Operation = "owner:store:update"
	OpOwnerDashboard     Operation = "owner:dashboard"

	OpAdminDashboard  Operation = "admin:dashboard"
	OpUserList        Operation = "admin:users:list"
	OpUserCreate      Operation = "admin:users:create"
	OpUserRoleUpdate  Operation = "admin:users:role"
	OpUserDelete      Operation = "admin:users:delete"
	OpStoreCreate     Operation = "admin:stores:create"
	OpStoreUpdate     Operation = "admin:stores:update"
	OpStoreDelete     Operation = "admin:stores:delete"
	OpRatingSubmit    Operation = "ratings:submit"
	OpRatingUpdate    Operation = "ratings:update"
	OpRatingListOwn   Operation = "ratings:list-own"
	OpRatingLookup    Operation = "ratings:lookup"
	OpRatingListStore Operation = "ratings:list-store"
)

var anyRole = []model.Role{model.RoleSystemAdmin, model.RoleStoreOwner, model.RoleNormalUser}

var rules = map[Operation][]model.Role{
	OpProfileRead:    anyRole,
	OpProfileUpdate:  anyRole,
	OpPasswordChange: anyRole,
	OpLogout:         anyRole,

	OpOwnerProfileRead:   {model.RoleStoreOwner},
	OpOwnerProfileUpdate: {model.RoleStoreOwner},
	OpOwnStoreCreate:     {model.RoleStoreOwner},
	OpOwnStoreUpdate:     {model.RoleStoreOwner},
	OpOwnerDashboard:     {model.RoleStoreOwner},
	OpRatingListStore:    {model.RoleStoreOwner},

	OpAdminDashboard: {model.RoleSystemAdmin},
	OpUserList:       {model.RoleSystemAdmin},
	OpUserCreate:     {model.RoleSystemAdmin},
	OpUserRoleUpdate: {model.RoleSystemAdmin},
	OpUserDelete:     {model.RoleSystemAdmin},
	OpStoreCreate:    {model.RoleSystemAdmin},
	OpStoreUpdate:    {model.RoleSystemAdmin},
	OpStoreDelete:    {model.RoleSystemAdmin},

	OpRatingSubmit:  {model.RoleNormalUser},
	OpRatingUpdate:  {model.RoleNormalUser},
	OpRatingListOwn: {model.RoleNormalUser},
	OpRatingLookup:  {model.RoleNormalUser},
}

// Decision is the outcome of a permission check.  A denied decision carries
// the kind of failure (unauthenticated or forbidden) and a reason.
type Decision struct {
	Allowed bool
	Kind    apperr.Kind
	Reason  string
}

// Err converts a denied decision into an *apperr.Error and returns nil for
// an allowed one.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Kind == apperr.KindUnauthenticated {
		return apperr.Unauthenticated(d.Reason)
	}
	return apperr.Forbidden(d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(k apperr.Kind, reason string) Decision {
	return Decision{Kind: k, Reason: reason}
}

// Permission decides whether p may perform op.  A nil principal is
// unauthenticated; a principal whose role is outside the operation's set is
// forbidden.  Unknown operations are always forbidden.
func Permission(p *Principal, op Operation) Decision {
	if p == nil || p.UserID == "" {
		return deny(apperr.KindUnauthenticated, "authentication required")
	}
	roles, ok := rules[op]
	if !ok {
		return deny(apperr.KindForbidden, "operation not permitted")
	}
	for _, r := range roles {
		if r == p.Role {
			return allow()
		}
	}
	return deny(apperr.KindForbidden, "role "+string(p.Role)+" may not perform "+string(op))
}

// CanDeleteUser applies the user-deletion gate plus the self-action guard:
// an admin may not delete their own account.
func CanDeleteUser(p *Principal, targetID string) Decision {
	if d := Permission(p, OpUserDelete); !d.Allowed {
		return d
	}
	if p.UserID == targetID {
		return deny(apperr.KindForbidden, "cannot delete your own account")
	}
	return allow()
}

// CanUpdateRating allows only the author of a rating to change it.
func CanUpdateRating(p *Principal, authorID string) Decision {
	if d := Permission(p, OpRatingUpdate); !d.Allowed {
		return d
	}
	if p.UserID != authorID {
		return deny(apperr.KindForbidden, "you can only update your own ratings")
	}
	return allow()
}

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
)

func TestPermission(t *testing.T) {
	admin := &Principal{UserID: "a", Role: model.RoleSystemAdmin}
	owner := &Principal{UserID: "o", Role: model.RoleStoreOwner}
	user := &Principal{UserID: "u", Role: model.RoleNormalUser}

	tests := []struct {
		name    string
		p       *Principal
		op      Operation
		allowed bool
		kind    apperr.Kind
	}{
		{"anonymous is unauthenticated", nil, OpProfileRead, false, apperr.KindUnauthenticated},
		{"empty id is unauthenticated", &Principal{Role: model.RoleNormalUser}, OpProfileRead, false, apperr.KindUnauthenticated},
		{"any role reads profile", owner, OpProfileRead, true, 0},
		{"user submits rating", user, OpRatingSubmit, true, 0},
		{"owner cannot submit rating", owner, OpRatingSubmit, false, apperr.KindForbidden},
		{"admin cannot submit rating", admin, OpRatingSubmit, false, apperr.KindForbidden},
		{"owner creates own store", owner, OpOwnStoreCreate, true, 0},
		{"user cannot create own store", user, OpOwnStoreCreate, false, apperr.KindForbidden},
		{"admin is not an owner", admin, OpOwnerDashboard, false, apperr.KindForbidden},
		{"admin deletes stores", admin, OpStoreDelete, true, 0},
		{"owner cannot delete stores", owner, OpStoreDelete, false, apperr.KindForbidden},
		{"owner lists store ratings", owner, OpRatingListStore, true, 0},
		{"unknown operation", admin, Operation("nope"), false, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Permission(tt.p, tt.op)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.kind, d.Kind)
				assert.True(t, apperr.Is(d.Err(), tt.kind))
			} else {
				assert.NoError(t, d.Err())
			}
		})
	}
}

func TestCanDeleteUserSelfGuard(t *testing.T) {
	admin := &Principal{UserID: "a", Role: model.RoleSystemAdmin}

	assert.True(t, CanDeleteUser(admin, "b").Allowed)

	d := CanDeleteUser(admin, "a")
	assert.False(t, d.Allowed)
	assert.Equal(t, apperr.KindForbidden, d.Kind)

	d = CanDeleteUser(&Principal{UserID: "u", Role: model.RoleNormalUser}, "b")
	assert.False(t, d.Allowed)
}

func TestCanUpdateRatingOnlyAuthor(t *testing.T) {
	user := &Principal{UserID: "u", Role: model.RoleNormalUser}
	assert.True(t, CanUpdateRating(user, "u").Allowed)
	assert.Equal(t, apperr.KindForbidden, CanUpdateRating(user, "x").Kind)
}

func TestEveryOperationHasRoles(t *testing.T) {
	for op, roles := range rules {
		assert.NotEmpty(t, roles, string(op))
	}
}

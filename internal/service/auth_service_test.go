package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/utils"
)

func TestRegisterForcesRoleByScope(t *testing.T) {
	f := newFixture(t)
	cases := map[Scope]model.Role{
		ScopeUser:       model.RoleNormalUser,
		ScopeStoreOwner: model.RoleStoreOwner,
		ScopeAdmin:      model.RoleSystemAdmin,
	}
	for scope, role := range cases {
		_, sess := f.register(t, scope, "reg-"+string(scope))
		assert.Equal(t, role, sess.User.Role)
		assert.NotEmpty(t, sess.AccessToken)
		assert.Len(t, sess.RefreshToken, 96)

		sub, err := utils.ParseAccessToken("test-secret", sess.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, sess.User.ID, sub)
	}
	assert.Equal(t, []string{queue.UserRegistered, queue.UserRegistered, queue.UserRegistered}, f.events.types())
}

func TestRegisterRejectsDuplicateAndInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "dup")

	_, err := f.auth.Register(ctx, ScopeStoreOwner, RegisterInput{
		Name: "Someone", Email: "DUP@example.com", Password: testPassword,
	})
	requireKind(t, err, apperr.KindConflict)

	_, err = f.auth.Register(ctx, ScopeUser, RegisterInput{Name: "A", Email: "not-an-email", Password: "weakpass"})
	requireKind(t, err, apperr.KindValidation)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "name")
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "password")
}

func TestPaddedNamesAreMeasuredAfterTrimming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, ScopeUser, RegisterInput{Name: " a", Email: "pad@example.com", Password: testPassword})
	requireKind(t, err, apperr.KindValidation)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "must be at least 2 characters", ae.Fields["name"])

	_, err = f.auth.AdminCreateUser(ctx, f.admin1(t), CreateUserInput{
		RegisterInput: RegisterInput{Name: "   ", Email: "blank@example.com", Password: testPassword},
	})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.auth.CreateAdmin(ctx, RegisterInput{Name: "\tb ", Email: "cli@example.com", Password: testPassword})
	requireKind(t, err, apperr.KindValidation)

	p := f.user(t, "padded")
	short := "  z  "
	_, err = f.auth.UpdateProfile(ctx, p, ProfileInput{Name: &short})
	requireKind(t, err, apperr.KindValidation)

	sess, err := f.auth.Register(ctx, ScopeUser, RegisterInput{Name: "  Bo  ", Email: " bo@example.com ", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "Bo", sess.User.Name)
	assert.Equal(t, "bo@example.com", sess.User.Email)
}

func TestLoginIsScopedAndUniform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "plain")
	f.register(t, ScopeStoreOwner, "shopper")

	_, err := f.auth.Login(ctx, ScopeUser, LoginInput{Email: "plain@example.com", Password: testPassword})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, ScopeUser, LoginInput{Email: "shopper@example.com", Password: testPassword})
	require.NoError(t, err, "the users route accepts every role")

	failures := []struct {
		scope Scope
		in    LoginInput
	}{
		{ScopeUser, LoginInput{Email: "nobody@example.com", Password: testPassword}},
		{ScopeUser, LoginInput{Email: "plain@example.com", Password: "Wrong#123"}},
		{ScopeAdmin, LoginInput{Email: "plain@example.com", Password: testPassword}},
		{ScopeStoreOwner, LoginInput{Email: "plain@example.com", Password: testPassword}},
	}
	for _, tc := range failures {
		_, err := f.auth.Login(ctx, tc.scope, tc.in)
		requireKind(t, err, apperr.KindUnauthenticated)
		assert.Equal(t, "invalid email or password", err.Error())
	}

	sess, err := f.auth.Login(ctx, ScopeStoreOwner, LoginInput{Email: "SHOPPER@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStoreOwner, sess.User.Role)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, sess := f.register(t, ScopeUser, "rot")

	next, err := f.auth.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = f.auth.Refresh(ctx, sess.RefreshToken)
	requireKind(t, err, apperr.KindUnauthenticated)

	require.NoError(t, f.auth.Logout(ctx, p))
	_, err = f.auth.Refresh(ctx, next.RefreshToken)
	requireKind(t, err, apperr.KindUnauthenticated)

	_, err = f.auth.Refresh(ctx, "")
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestAuthenticateReadsCurrentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin1(t)
	_, sess := f.register(t, ScopeUser, "promo")

	p, err := f.auth.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleNormalUser, p.Role)

	_, err = f.admin.UpdateUserRole(ctx, admin, sess.User.ID, RoleInput{Role: "STORE_OWNER"})
	require.NoError(t, err)

	p, err = f.auth.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStoreOwner, p.Role)

	_, err = f.auth.Authenticate(ctx, "garbage")
	requireKind(t, err, apperr.KindUnauthenticated)

	require.NoError(t, f.admin.DeleteUser(ctx, admin, sess.User.ID))
	_, err = f.auth.Authenticate(ctx, sess.AccessToken)
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestAdminCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin1(t)
	in := CreateUserInput{RegisterInput: RegisterInput{
		Name: "Created", Email: "created@example.com", Password: testPassword,
	}}

	u, err := f.auth.AdminCreateUser(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleNormalUser, u.Role)

	in.Email = "owner2@example.com"
	in.Role = "STORE_OWNER"
	u, err = f.auth.AdminCreateUser(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStoreOwner, u.Role)

	in.Email = "bad@example.com"
	in.Role = "ROOT"
	_, err = f.auth.AdminCreateUser(ctx, admin, in)
	requireKind(t, err, apperr.KindValidation)

	_, err = f.auth.AdminCreateUser(ctx, f.user(t, "norm"), in)
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.auth.AdminCreateUser(ctx, nil, in)
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestProfileIncludesOwnedStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, st := f.ownerWithStore(t, "prof")

	u, err := f.auth.OwnerProfile(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, u.Store)
	assert.Equal(t, st.ID, u.Store.ID)

	plain := f.user(t, "plainprof")
	u, err = f.auth.Profile(ctx, plain)
	require.NoError(t, err)
	assert.Nil(t, u.Store)

	_, err = f.auth.OwnerProfile(ctx, plain)
	requireKind(t, err, apperr.KindForbidden)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.user(t, "upd")

	name := "  Updated Name "
	u, err := f.auth.UpdateProfile(ctx, p, ProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", u.Name)
	assert.Equal(t, "1 upd Road", u.Address)

	_, err = f.auth.UpdateProfile(ctx, p, ProfileInput{})
	requireKind(t, err, apperr.KindValidation)

	short := "x"
	_, err = f.auth.UpdateProfile(ctx, p, ProfileInput{Name: &short})
	requireKind(t, err, apperr.KindValidation)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, sess := f.register(t, ScopeUser, "pw")

	err := f.auth.ChangePassword(ctx, p, PasswordInput{CurrentPassword: "Wrong#123", NewPassword: "Fresh#4567"})
	requireKind(t, err, apperr.KindValidation)

	err = f.auth.ChangePassword(ctx, p, PasswordInput{CurrentPassword: testPassword, NewPassword: "weak"})
	requireKind(t, err, apperr.KindValidation)

	require.NoError(t, f.auth.ChangePassword(ctx, p, PasswordInput{CurrentPassword: testPassword, NewPassword: "Fresh#4567"}))

	_, err = f.auth.Login(ctx, ScopeUser, LoginInput{Email: "pw@example.com", Password: testPassword})
	requireKind(t, err, apperr.KindUnauthenticated)
	_, err = f.auth.Login(ctx, ScopeUser, LoginInput{Email: "pw@example.com", Password: "Fresh#4567"})
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, sess.RefreshToken)
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	u, err := f.auth.CreateAdmin(context.Background(), RegisterInput{
		Name: "Ops", Email: "ops@example.com", Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSystemAdmin, u.Role)
	assert.True(t, policy.Permission(&policy.Principal{UserID: u.ID, Role: u.Role}, policy.OpAdminDashboard).Allowed)
}

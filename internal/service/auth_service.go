package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/utils"
	"github.com/iliyamo/store-rating/internal/validation"
)

// Scope selects the route family a registration or login came through.
// It forces the role on registration and restricts which roles may log in.
type Scope string

const (
	ScopeUser       Scope = "user"
	ScopeStoreOwner Scope = "storeowner"
	ScopeAdmin      Scope = "admin"
)

// registerRole is the role a self-registration through s receives.
func (s Scope) registerRole() (model.Role, bool) {
	switch s {
	case ScopeUser:
		return model.RoleNormalUser, true
	case ScopeStoreOwner:
		return model.RoleStoreOwner, true
	case ScopeAdmin:
		return model.RoleSystemAdmin, true
	}
	return "", false
}

// admits reports whether a user with role may log in through s.  The
// users route accepts every role.
func (s Scope) admits(role model.Role) bool {
	switch s {
	case ScopeStoreOwner:
		return role == model.RoleStoreOwner
	case ScopeAdmin:
		return role == model.RoleSystemAdmin
	}
	return true
}

const msgInvalidCredentials = "invalid email or password"

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	Address  string `json:"address" validate:"max=400"`
}

type CreateUserInput struct {
	RegisterInput
	Role string `json:"role" validate:"omitempty,role"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=60"`
	Address *string `json:"address" validate:"omitempty,max=400"`
}

// normalize trims the free-text fields so length rules see what is stored.
func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
}

func (in *ProfileInput) normalize() {
	trim(in.Name)
	trim(in.Address)
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// Session is the result of a successful registration, login or refresh.
// The raw refresh token travels in a cookie, never in the body.
type Session struct {
	User             model.User `json:"user"`
	AccessToken      string     `json:"accessToken"`
	AccessExpiresAt  time.Time  `json:"accessTokenExpiresAt"`
	RefreshToken     string     `json:"-"`
	RefreshExpiresAt time.Time  `json:"-"`
}

type AuthService struct {
	Deps
	cfg AuthConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d Deps, cfg AuthConfig) *AuthService {
	return &AuthService{Deps: d, cfg: cfg}
}

// Register creates an account through a self-service route and signs it in.
func (s *AuthService) Register(ctx context.Context, scope Scope, in RegisterInput) (Session, error) {
	role, ok := scope.registerRole()
	if !ok {
		return Session{}, apperr.NotFound("unknown registration route")
	}
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}
	u, err := s.newUser(ctx, in, role)
	if err != nil {
		return Session{}, err
	}

	var sess Session
	err = s.Repos.InTx(ctx, func(r *repository.Repos) error {
		if err := r.Users.Create(ctx, &u); err != nil {
			return err
		}
		sess, err = s.issue(ctx, r, u)
		return err
	})
	if err != nil {
		return Session{}, userWriteErr(err)
	}
	s.publish(ctx, queue.NewEvent(queue.UserRegistered, u.ID, u.ID, map[string]string{
		"role": string(u.Role), "via": string(scope),
	}))
	return sess, nil
}

// AdminCreateUser creates an account on behalf of an admin.  The role
// defaults to NORMAL_USER and no session is issued.
func (s *AuthService) AdminCreateUser(ctx context.Context, p *policy.Principal, in CreateUserInput) (model.User, error) {
	if err := policy.Permission(p, policy.OpUserCreate).Err(); err != nil {
		return model.User{}, err
	}
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	role := model.RoleNormalUser
	if in.Role != "" {
		role, _ = model.ParseRole(in.Role)
	}
	u, err := s.createUser(ctx, in.RegisterInput, role)
	if err != nil {
		return model.User{}, err
	}
	s.publish(ctx, queue.NewEvent(queue.UserRegistered, p.UserID, u.ID, map[string]string{
		"role": string(u.Role), "via": "admin",
	}))
	return u, nil
}

// CreateAdmin provisions a SYSTEM_ADMIN from the operator CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (model.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	u, err := s.createUser(ctx, in, model.RoleSystemAdmin)
	if err != nil {
		return model.User{}, err
	}
	s.publish(ctx, queue.NewEvent(queue.UserRegistered, "", u.ID, map[string]string{
		"role": string(u.Role), "via": "cli",
	}))
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role model.Role) (model.User, error) {
	u, err := s.newUser(ctx, in, role)
	if err != nil {
		return model.User{}, err
	}
	if err := s.Repos.Repos().Users.Create(ctx, &u); err != nil {
		return model.User{}, userWriteErr(err)
	}
	return u, nil
}

// newUser checks the email and hashes the password.  The insert still
// maps a racing duplicate to a conflict.
func (s *AuthService) newUser(ctx context.Context, in RegisterInput, role model.Role) (model.User, error) {
	exists, err := s.Repos.Repos().Users.EmailExists(ctx, in.Email)
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	if exists {
		return model.User{}, apperr.Conflict("user with this email already exists")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	return model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        repository.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Address:      in.Address,
		Role:         role,
		CreatedAt:    s.now(),
	}, nil
}

func userWriteErr(err error) error {
	if errors.Is(err, repository.ErrEmailExists) {
		return apperr.Conflict("user with this email already exists")
	}
	return apperr.Internal(err)
}

// Login verifies credentials for the given scope.  Unknown email, a role
// the scope does not admit and a wrong password all produce the same error.
func (s *AuthService) Login(ctx context.Context, scope Scope, in LoginInput) (Session, error) {
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}
	u, err := s.Repos.Repos().Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Spend the same bcrypt time as a real comparison.
		utils.VerifyPassword(s.dummy(), in.Password)
		return Session{}, apperr.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	passwordOK := utils.VerifyPassword(u.PasswordHash, in.Password)
	if !passwordOK || !scope.admits(u.Role) {
		return Session{}, apperr.Unauthenticated(msgInvalidCredentials)
	}
	sess, err := s.issue(ctx, s.Repos.Repos(), u)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return sess, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword(uuid.NewString(), s.cfg.BcryptCost)
	})
	return s.dummyHash
}

// issue signs an access token and rotates the stored refresh token.
func (s *AuthService) issue(ctx context.Context, r *repository.Repos, u model.User) (Session, error) {
	at, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, string(u.Role), s.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return Session{}, err
	}
	if err := r.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Session{}, err
	}
	u.RefreshTokenHash, u.RefreshExpiresAt = nil, nil
	return Session{
		User:             u,
		AccessToken:      at.Token,
		AccessExpiresAt:  at.Exp,
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: rt.Exp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new session.  The old
// token stops working.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, apperr.Unauthenticated("refresh token missing")
	}
	repos := s.Repos.Repos()
	userID, err := repos.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw), s.now())
	if errors.Is(err, repository.ErrRefreshInvalid) {
		return Session{}, apperr.Unauthenticated("invalid or expired refresh token")
	}
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	u, err := repos.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return Session{}, apperr.Unauthenticated("invalid or expired refresh token")
	}
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	sess, err := s.issue(ctx, repos, u)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return sess, nil
}

// Logout clears the caller's stored refresh token.
func (s *AuthService) Logout(ctx context.Context, p *policy.Principal) error {
	if err := policy.Permission(p, policy.OpLogout).Err(); err != nil {
		return err
	}
	if err := s.Repos.Repos().Tokens.Revoke(ctx, p.UserID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate turns a bearer access token into a principal.  The role is
// read from storage so that role changes apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*policy.Principal, error) {
	userID, err := utils.ParseAccessToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}
	u, err := s.Repos.Repos().Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &policy.Principal{UserID: u.ID, Role: u.Role}, nil
}

// Profile returns the caller's account.  Store owners also get their store.
func (s *AuthService) Profile(ctx context.Context, p *policy.Principal) (model.User, error) {
	return s.profile(ctx, p, policy.OpProfileRead)
}

// OwnerProfile is Profile restricted to store owners.
func (s *AuthService) OwnerProfile(ctx context.Context, p *policy.Principal) (model.User, error) {
	return s.profile(ctx, p, policy.OpOwnerProfileRead)
}

func (s *AuthService) profile(ctx context.Context, p *policy.Principal, op policy.Operation) (model.User, error) {
	if err := policy.Permission(p, op).Err(); err != nil {
		return model.User{}, err
	}
	repos := s.Repos.Repos()
	u, err := repos.Users.GetByID(ctx, p.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	if u.Role == model.RoleStoreOwner {
		st, err := repos.Stores.GetByOwner(ctx, u.ID)
		switch {
		case err == nil:
			u.Store = &model.StoreRef{ID: st.ID, Name: st.Name, Address: st.Address}
		case !errors.Is(err, repository.ErrStoreNotFound):
			return model.User{}, apperr.Internal(err)
		}
	}
	return u, nil
}

// UpdateProfile changes the caller's name and/or address.
func (s *AuthService) UpdateProfile(ctx context.Context, p *policy.Principal, in ProfileInput) (model.User, error) {
	return s.updateProfile(ctx, p, in, policy.OpProfileUpdate, policy.OpProfileRead)
}

// UpdateOwnerProfile is UpdateProfile restricted to store owners.
func (s *AuthService) UpdateOwnerProfile(ctx context.Context, p *policy.Principal, in ProfileInput) (model.User, error) {
	return s.updateProfile(ctx, p, in, policy.OpOwnerProfileUpdate, policy.OpOwnerProfileRead)
}

func (s *AuthService) updateProfile(ctx context.Context, p *policy.Principal, in ProfileInput, op, readOp policy.Operation) (model.User, error) {
	if err := policy.Permission(p, op).Err(); err != nil {
		return model.User{}, err
	}
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	if in.Name == nil && in.Address == nil {
		return model.User{}, apperr.Validation("no fields to update", nil)
	}
	if err := s.Repos.Repos().Users.UpdateProfile(ctx, p.UserID, in.Name, in.Address); err != nil {
		return model.User{}, apperr.Internal(err)
	}
	return s.profile(ctx, p, readOp)
}

// ChangePassword replaces the caller's password after checking the current
// one, and revokes the stored refresh token so other sessions end.
func (s *AuthService) ChangePassword(ctx context.Context, p *policy.Principal, in PasswordInput) error {
	if err := policy.Permission(p, policy.OpPasswordChange).Err(); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	u, err := s.Repos.Repos().Users.GetByID(ctx, p.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.CurrentPassword) {
		return apperr.Validation("validation failed", map[string]string{"currentPassword": "is incorrect"})
	}
	hash, err := utils.HashPassword(in.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	err = s.Repos.InTx(ctx, func(r *repository.Repos) error {
		if err := r.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return err
		}
		return r.Tokens.Revoke(ctx, u.ID)
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/store-rating/internal/model"
)

const userColumns = "u.id, u.name, u.email, u.password_hash, u.address, u.role, u.refresh_token_hash, u.refresh_token_expires_at, u.created_at"

type UserRepo struct{ DB DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner, extra ...any) (model.User, error) {
	var (
		u    model.User
		role string
		hash sql.NullString
		exp  sql.NullTime
	)
	dest := append([]any{&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &role, &hash, &exp, &u.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if hash.Valid {
		u.RefreshTokenHash = &hash.String
	}
	if exp.Valid {
		t := exp.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

// Create inserts u.  ID, CreatedAt and PasswordHash must already be set.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, address, role, created_at) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.Address, string(u.Role), u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.email=? LIMIT 1", NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// EmailExists reports whether any user holds email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", NormalizeEmail(email)).Scan(&n)
	return n > 0, err
}

// UpdateProfile changes the name and/or address.  Nil fields are left alone.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, name, address *string) error {
	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, *name)
	}
	if address != nil {
		sets = append(sets, "address=?")
		args = append(args, *address)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateRole sets the role of user id.  Callers check existence first:
// MySQL reports zero affected rows when the role is unchanged.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", string(role), id)
	return err
}

// Delete removes the user row.  Ratings and the owned store must be gone
// already; the foreign keys restrict.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountByRole groups user counts by role.  Roles without users are
// reported as 0.
func (r *UserRepo) CountByRole(ctx context.Context) (map[model.Role]int, error) {
	out := make(map[model.Role]int, len(model.Roles))
	for _, role := range model.Roles {
		out[role] = 0
	}
	rows, err := r.DB.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[model.Role(role)] = n
	}
	return out, rows.Err()
}

// Recent returns the n most recently created users.
func (r *UserRepo) Recent(ctx context.Context, n int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u ORDER BY u.created_at DESC, u.id ASC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0, n)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

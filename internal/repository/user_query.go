package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/store-rating/internal/model"
)

// UserFilter narrows the admin user listing.  Text fields match as
// case-insensitive substrings; Role matches exactly.  All set fields are
// AND-combined.
type UserFilter struct {
	Name    string
	Email   string
	Address string
	Role    model.Role
}

var userSortColumns = map[string]string{
	"name":      "u.name",
	"email":     "u.email",
	"address":   "u.address",
	"createdAt": "u.created_at",
}

func (f UserFilter) conds() conds {
	var c conds
	c.contains("u.name", f.Name)
	c.contains("u.email", f.Email)
	c.contains("u.address", f.Address)
	if f.Role != "" {
		c.equals("u.role", string(f.Role))
	}
	return c
}

// List returns one page of users matching f, each with its owned store
// (id and name) when there is one.
func (r *UserRepo) List(ctx context.Context, f UserFilter, o Order, p Page) ([]model.User, error) {
	c := f.conds()
	q := "SELECT " + userColumns + `, s.id, s.name
		FROM users u
		LEFT JOIN stores s ON s.owner_id = u.id
		WHERE ` + c.sql() + `
		ORDER BY ` + o.sql(userSortColumns, "u.created_at DESC", "u.id") + `
		LIMIT ? OFFSET ?`
	args := append(append([]any{}, c.args...), p.Limit, p.Offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0, p.Limit)
	for rows.Next() {
		var storeID, storeName sql.NullString
		u, err := scanUser(rows, &storeID, &storeName)
		if err != nil {
			return nil, err
		}
		if storeID.Valid {
			u.Store = &model.StoreRef{ID: storeID.String, Name: storeName.String}
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountFiltered counts every user matching f, independent of paging.
func (r *UserRepo) CountFiltered(ctx context.Context, f UserFilter) (int, error) {
	c := f.conds()
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users u WHERE "+c.sql(), c.args...).Scan(&n)
	return n, err
}

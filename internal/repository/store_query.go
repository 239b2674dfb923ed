package repository

import (
	"context"

	"github.com/iliyamo/store-rating/internal/model"
)

// StoreFilter narrows store listings.  Name, Email and Address are
// AND-combined substring matches; Term matches name OR address and is used
// by search.  Matching is case-insensitive.
type StoreFilter struct {
	Name    string
	Email   string
	Address string
	Term    string
}

// Store sort keys that map onto stored columns.  "rating" is derived and
// handled by the caller after the page is fetched.
var storeSortColumns = map[string]string{
	"name":      "s.name",
	"email":     "s.email",
	"address":   "s.address",
	"createdAt": "s.created_at",
}

func (f StoreFilter) conds() conds {
	var c conds
	c.contains("s.name", f.Name)
	c.contains("s.email", f.Email)
	c.contains("s.address", f.Address)
	c.anyContains(f.Term, "s.name", "s.address")
	return c
}

// List returns one page of stores matching f with their owner summaries.
// Unknown sort columns fall back to creation order.
func (r *StoreRepo) List(ctx context.Context, f StoreFilter, o Order, p Page) ([]model.Store, error) {
	c := f.conds()
	q := "SELECT " + storeColumns + " FROM " + storeFrom + `
		WHERE ` + c.sql() + `
		ORDER BY ` + o.sql(storeSortColumns, "s.name ASC", "s.id") + `
		LIMIT ? OFFSET ?`
	args := append(append([]any{}, c.args...), p.Limit, p.Offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Store, 0, p.Limit)
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CountFiltered counts every store matching f, independent of paging.
func (r *StoreRepo) CountFiltered(ctx context.Context, f StoreFilter) (int, error) {
	c := f.conds()
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stores s WHERE "+c.sql(), c.args...).Scan(&n)
	return n, err
}

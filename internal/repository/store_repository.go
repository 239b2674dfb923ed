package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/store-rating/internal/model"
)

const storeColumns = "s.id, s.name, s.email, s.address, s.owner_id, s.created_at, o.id, o.name, o.email"

const storeFrom = "stores s JOIN users o ON o.id = s.owner_id"

type StoreRepo struct{ DB DBTX }

func NewStoreRepo(db DBTX) *StoreRepo { return &StoreRepo{DB: db} }

// StorePatch carries a partial store update.  Nil fields are unchanged.
type StorePatch struct {
	Name    *string
	Email   *string
	Address *string
}

func (p StorePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Address == nil
}

func scanStore(s rowScanner) (model.Store, error) {
	var (
		st    model.Store
		owner model.UserRef
	)
	if err := s.Scan(&st.ID, &st.Name, &st.Email, &st.Address, &st.OwnerID, &st.CreatedAt,
		&owner.ID, &owner.Name, &owner.Email); err != nil {
		return model.Store{}, err
	}
	st.Owner = &owner
	return st, nil
}

// storeConflict maps a unique violation on stores to the matching sentinel.
func storeConflict(err error) error {
	if duplicateOn(err, "owner_id") {
		return ErrOwnerHasStore
	}
	if isDuplicate(err) {
		return ErrStoreEmailExists
	}
	return err
}

// Create inserts st.  ID and CreatedAt must already be set.
func (r *StoreRepo) Create(ctx context.Context, st *model.Store) error {
	st.Email = NormalizeEmail(st.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO stores (id, name, email, address, owner_id, created_at) VALUES (?,?,?,?,?,?)",
		st.ID, st.Name, st.Email, st.Address, st.OwnerID, st.CreatedAt)
	if err != nil {
		return storeConflict(err)
	}
	return nil
}

// GetByID fetches a store with its owner summary.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (model.Store, error) {
	st, err := scanStore(r.DB.QueryRowContext(ctx,
		"SELECT "+storeColumns+" FROM "+storeFrom+" WHERE s.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrStoreNotFound
	}
	return st, err
}

// GetByOwner fetches the store owned by ownerID.
func (r *StoreRepo) GetByOwner(ctx context.Context, ownerID string) (model.Store, error) {
	st, err := scanStore(r.DB.QueryRowContext(ctx,
		"SELECT "+storeColumns+" FROM "+storeFrom+" WHERE s.owner_id=? LIMIT 1", ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrStoreNotFound
	}
	return st, err
}

// EmailTaken reports whether a store other than exceptID uses email.
// Pass an empty exceptID to check against every store.
func (r *StoreRepo) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stores WHERE email=? AND id<>?",
		NormalizeEmail(email), exceptID).Scan(&n)
	return n > 0, err
}

// Update applies p to store id.
func (r *StoreRepo) Update(ctx context.Context, id string, p StorePatch) error {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, NormalizeEmail(*p.Email))
	}
	if p.Address != nil {
		sets = append(sets, "address=?")
		args = append(args, *p.Address)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE stores SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return storeConflict(err)
	}
	return nil
}

// Delete removes the store row.  Its ratings must be deleted first.
func (r *StoreRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM stores WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoreNotFound
	}
	return nil
}

func (r *StoreRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores").Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/store-rating/internal/model"
)

type RatingRepo struct{ DB DBTX }

func NewRatingRepo(db DBTX) *RatingRepo { return &RatingRepo{DB: db} }

const ratingColumns = "r.id, r.rating, r.user_id, r.store_id, r.created_at"

func scanRating(s rowScanner, extra ...any) (model.Rating, error) {
	var rt model.Rating
	dest := append([]any{&rt.ID, &rt.Value, &rt.UserID, &rt.StoreID, &rt.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.Rating{}, err
	}
	return rt, nil
}

// Create inserts rt.  A second rating for the same (user, store) pair is
// rejected by the unique index and reported as ErrAlreadyRated.
func (r *RatingRepo) Create(ctx context.Context, rt *model.Rating) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO ratings (id, rating, user_id, store_id, created_at) VALUES (?,?,?,?,?)",
		rt.ID, rt.Value, rt.UserID, rt.StoreID, rt.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyRated
		}
		return err
	}
	return nil
}

func (r *RatingRepo) GetByID(ctx context.Context, id string) (model.Rating, error) {
	rt, err := scanRating(r.DB.QueryRowContext(ctx,
		"SELECT "+ratingColumns+" FROM ratings r WHERE r.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrRatingNotFound
	}
	return rt, err
}

// GetByUserAndStore fetches the rating userID gave storeID, with the store
// summary attached.
func (r *RatingRepo) GetByUserAndStore(ctx context.Context, userID, storeID string) (model.Rating, error) {
	var ref model.StoreRef
	rt, err := scanRating(r.DB.QueryRowContext(ctx,
		"SELECT "+ratingColumns+`, s.id, s.name, s.address
		FROM ratings r JOIN stores s ON s.id = r.store_id
		WHERE r.user_id=? AND r.store_id=? LIMIT 1`, userID, storeID),
		&ref.ID, &ref.Name, &ref.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrRatingNotFound
	}
	if err != nil {
		return rt, err
	}
	rt.Store = &ref
	return rt, nil
}

// UpdateValue changes the score of rating id.
func (r *RatingRepo) UpdateValue(ctx context.Context, id string, value int) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE ratings SET rating=? WHERE id=?", value, id)
	return err
}

// ListByUser returns the ratings authored by userID, newest first, each
// with the rated store's id, name and address.
func (r *RatingRepo) ListByUser(ctx context.Context, userID string) ([]model.Rating, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+ratingColumns+`, s.id, s.name, s.address
		FROM ratings r JOIN stores s ON s.id = r.store_id
		WHERE r.user_id=?
		ORDER BY r.created_at DESC, r.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Rating{}
	for rows.Next() {
		var ref model.StoreRef
		rt, err := scanRating(rows, &ref.ID, &ref.Name, &ref.Address)
		if err != nil {
			return nil, err
		}
		rt.Store = &ref
		out = append(out, rt)
	}
	return out, rows.Err()
}

// ListByStore returns the ratings of storeID, newest first, each with the
// author's id, name and email.
func (r *RatingRepo) ListByStore(ctx context.Context, storeID string) ([]model.Rating, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+ratingColumns+`, u.id, u.name, u.email
		FROM ratings r JOIN users u ON u.id = r.user_id
		WHERE r.store_id=?
		ORDER BY r.created_at DESC, r.id ASC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Rating{}
	for rows.Next() {
		var ref model.UserRef
		rt, err := scanRating(rows, &ref.ID, &ref.Name, &ref.Email)
		if err != nil {
			return nil, err
		}
		rt.User = &ref
		out = append(out, rt)
	}
	return out, rows.Err()
}

// ValuesByStores returns the rating values of each listed store.  Stores
// without ratings are absent from the map.
func (r *RatingRepo) ValuesByStores(ctx context.Context, storeIDs []string) (map[string][]int, error) {
	out := make(map[string][]int, len(storeIDs))
	if len(storeIDs) == 0 {
		return out, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(storeIDs)), ",")
	args := make([]any, 0, len(storeIDs))
	for _, id := range storeIDs {
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT store_id, rating FROM ratings WHERE store_id IN ("+marks+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			storeID string
			v       int
		)
		if err := rows.Scan(&storeID, &v); err != nil {
			return nil, err
		}
		out[storeID] = append(out[storeID], v)
	}
	return out, rows.Err()
}

// DeleteByUser removes every rating authored by userID.
func (r *RatingRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ratings WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByStore removes every rating of storeID.
func (r *RatingRepo) DeleteByStore(ctx context.Context, storeID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ratings WHERE store_id=?", storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RatingRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM ratings").Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same repository
// code runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos bundles every repository bound to one DBTX.
type Repos struct {
	Users   *UserRepo
	Tokens  *TokenRepo
	Stores  *StoreRepo
	Ratings *RatingRepo
}

func newRepos(db DBTX) *Repos {
	return &Repos{
		Users:   NewUserRepo(db),
		Tokens:  NewTokenRepo(db),
		Stores:  NewStoreRepo(db),
		Ratings: NewRatingRepo(db),
	}
}

// Manager owns the connection pool and hands out repositories, either on
// the pool or scoped to a transaction.
type Manager struct {
	db    *sql.DB
	repos *Repos
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db, repos: newRepos(db)}
}

// Repos returns repositories that run each statement on the pool.
func (m *Manager) Repos() *Repos { return m.repos }

// InTx runs fn with repositories bound to a single transaction.  The
// transaction commits when fn returns nil and rolls back otherwise, so
// either every step of a multi-row mutation persists or none does.
func (m *Manager) InTx(ctx context.Context, fn func(r *Repos) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()
	return fn(newRepos(tx))
}

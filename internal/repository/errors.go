// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors itself.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrStoreNotFound  = errors.New("store not found")
	ErrRatingNotFound = errors.New("rating not found")

	// ErrEmailExists is returned when a user email is already registered.
	ErrEmailExists = errors.New("email already exists")
	// ErrStoreEmailExists is returned when another store uses the email.
	ErrStoreEmailExists = errors.New("store email already exists")
	// ErrOwnerHasStore is returned when the owner already holds a store.
	ErrOwnerHasStore = errors.New("owner already has a store")
	// ErrAlreadyRated is returned when the (user, store) pair already has a rating.
	ErrAlreadyRated = errors.New("store already rated by user")
)

// isDuplicate reports whether err is a unique-constraint violation from
// either supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// duplicateOn reports whether a unique violation mentions column.  Both
// MySQL ("for key 'stores.uq_stores_owner_id'") and sqlite ("UNIQUE
// constraint failed: stores.owner_id") include the column name.
func duplicateOn(err error, column string) bool {
	return isDuplicate(err) && strings.Contains(err.Error(), column)
}

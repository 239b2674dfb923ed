package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(Options{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "stores"})
	assert.Equal(t, "app:pw@tcp(db:3306)/stores?charset=utf8mb4&parseTime=true&loc=UTC", dsn)

	dsn = mysqlDSN(Options{User: "app", Host: "db", Port: "3306", Name: "stores"})
	assert.Equal(t, "app@tcp(db:3306)/stores?charset=utf8mb4&parseTime=true&loc=UTC", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:data.db?_foreign_keys=1&_busy_timeout=5000", sqliteDSN("data.db"))
	assert.Equal(t, "file::memory:", sqliteDSN("file::memory:"))
}

func TestMigrateCreatesSchemaWithConstraints(t *testing.T) {
	db, err := Open(Options{Driver: DriverSQLite, Name: "file:migrate_test?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, DriverSQLite))
	// Running twice is harmless.
	require.NoError(t, Migrate(db, DriverSQLite))

	_, err = db.Exec(`INSERT INTO users (id, name, email, password_hash, address, role, created_at)
		VALUES ('u1', 'Ada', 'ada@example.com', 'x', '', 'NORMAL_USER', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, name, email, password_hash, address, role, created_at)
		VALUES ('u2', 'Bob', 'ada@example.com', 'x', '', 'NORMAL_USER', CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "duplicate user email must be rejected")

	_, err = db.Exec(`INSERT INTO stores (id, name, email, address, owner_id, created_at)
		VALUES ('s1', 'Shop', 'shop@example.com', 'Main St', 'missing', CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "store owner must reference a user")

	_, err = db.Exec(`INSERT INTO stores (id, name, email, address, owner_id, created_at)
		VALUES ('s1', 'Shop', 'shop@example.com', 'Main St', 'u1', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO ratings (id, rating, user_id, store_id, created_at)
		VALUES ('r1', 6, 'u1', 's1', CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "rating outside 1..5 must be rejected")

	_, err = db.Exec(`DELETE FROM users WHERE id = 'u1'`)
	assert.Error(t, err, "deleting an owner with a store must not cascade implicitly")
}

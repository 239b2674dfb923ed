package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateAndCreateAdmin(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "store.db"))
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "off")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date (sqlite)")

	out, err = run(t, "create-admin", "--name", "Ops", "--email", "OPS@example.com", "--password", "Secret#123")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin ops@example.com")

	_, err = run(t, "create-admin", "--name", "Ops", "--email", "ops@example.com", "--password", "Secret#123")
	assert.ErrorContains(t, err, "already")

	_, err = run(t, "create-admin", "--name", "Weak", "--email", "weak@example.com", "--password", "weak")
	assert.Error(t, err)
}

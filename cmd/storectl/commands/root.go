package commands

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/database"
)

var (
	// Global flags
	driver string
	dbName string
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Operations for the store rating service",
	Long: `storectl reads the same environment (and .env file) as the server.

Commands:
  migrate       - create or update the schema
  create-admin  - add a SYSTEM_ADMIN account`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "override DB_DRIVER (mysql or sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "override DB_NAME (database name or sqlite file)")
}

// loadConfig reads the environment and applies the flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if driver != "" {
		cfg.DBDriver = driver
	}
	if dbName != "" {
		cfg.DBName = dbName
	}
	return cfg, nil
}

// openDB connects and migrates so every command sees the current schema.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

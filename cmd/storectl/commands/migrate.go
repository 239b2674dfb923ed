package commands

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the users, stores and ratings tables with their unique indexes.
Running it again on an up-to-date database changes nothing.

Examples:
  storectl migrate
  storectl migrate --driver sqlite --db ./store.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		cmd.Printf("schema is up to date (%s)\n", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

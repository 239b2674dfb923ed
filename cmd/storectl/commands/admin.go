package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/store-rating/internal/logging"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/service"
)

var (
	// create-admin flags
	adminName     string
	adminEmail    string
	adminPassword string
	adminAddress  string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a SYSTEM_ADMIN account",
	Long: `Create a SYSTEM_ADMIN through the same validation as the API.  The password
must be 8-16 characters with an uppercase letter and a special character.

Examples:
  storectl create-admin --name "Ops" --email ops@example.com --password 'Secret#123'`,
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

		deps := service.Deps{
			Repos:  repository.NewManager(db),
			Events: queue.Noop{},
			Logger: logging.New("storectl", cfg.LogLevel),
		}
		auth := service.NewAuthService(deps, service.AuthConfig{
			JWTSecret:  cfg.JWTSecret,
			AccessTTL:  cfg.AccessTTL(),
			RefreshTTL: cfg.RefreshTTL(),
			BcryptCost: cfg.BcryptCost,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		u, err := auth.CreateAdmin(ctx, service.RegisterInput{
			Name:     adminName,
			Email:    adminEmail,
			Password: adminPassword,
			Address:  adminAddress,
		})
		if err != nil {
			return err
		}
		cmd.Printf("created admin %s (%s)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	createAdminCmd.Flags().StringVar(&adminAddress, "address", "", "postal address")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"orderhub/internal/auth"
	"orderhub/internal/config"
	"orderhub/internal/db"
	"orderhub/internal/events"
	"orderhub/internal/logger"
	"orderhub/internal/repository"
	"orderhub/internal/service"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Database maintenance for orderhub",
}

var (
	resetFirst bool

	adminName     string
	adminEmail    string
	adminPassword string
)

func init() {
	migrateCmd.Flags().BoolVar(&resetFirst, "reset", false, "drop all tables before migrating")

	adminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin display name")
	adminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	adminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminCmd)
}

// bootDB loads config and opens a migrated database connection.
func bootDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if resetFirst {
		if err := db.Reset(gormDB); err != nil {
			return nil, nil, err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// seed migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Database migrations completed")
		return nil
	},
}

// seed admin
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create the bootstrap admin user",
	Long:  "Creates an admin through the regular signup flow, so it only succeeds while no admin exists yet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, gormDB, err := bootDB()
		if err != nil {
			return err
		}

		appLog, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer appLog.Sync()

		jwtService, err := auth.NewJWTService(auth.TokenConfig{
			Secret:              cfg.SecretKey,
			Algorithm:           cfg.Algorithm,
			AccessTokenLifetime: cfg.AccessTokenLifetime(),
		})
		if err != nil {
			return err
		}

		authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, events.NopPublisher{}, appLog)
		user, err := authService.Signup(context.Background(), service.SignupInput{
			Name:     adminName,
			Email:    adminEmail,
			Password: adminPassword,
			Admin:    true,
		}, nil)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		fmt.Printf("Admin %s created with id %d\n", user.Email, user.ID)
		return nil
	},
}

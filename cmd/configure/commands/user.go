package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tempohq/tempo/internal/config"
	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/validation"
)

// NewUserCmd creates the user management command with create and show
// subcommands.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		Long:  "Create or inspect users by their Telegram id.",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserShowCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var telegramID string
	var username string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user (idempotent)",
		Long:  "Create a user for a Telegram id, or print the existing one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID = strings.TrimSpace(telegramID)
			if err := validation.ValidateTelegramID(telegramID); err != nil {
				return fmt.Errorf("invalid --telegram-id: %w", err)
			}
			var usernamePtr *string
			if username != "" {
				sanitized := validation.SanitizeText(username)
				usernamePtr = &sanitized
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			repo := database.NewUserRepository(db)
			user, err := repo.GetOrCreate(context.Background(), telegramID, usernamePtr)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("User %s (telegram id %s)\n", user.ID, user.TelegramID)
			if user.Username != nil {
				fmt.Printf("  Username: %s\n", *user.Username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&telegramID, "telegram-id", "", "Telegram id (required)")
	cmd.Flags().StringVar(&username, "username", "", "Telegram username (optional)")
	return cmd
}

func newUserShowCmd() *cobra.Command {
	var telegramID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user by Telegram id",
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID = strings.TrimSpace(telegramID)
			if telegramID == "" {
				return fmt.Errorf("--telegram-id is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			repo := database.NewUserRepository(db)
			user, err := repo.GetByTelegramID(context.Background(), telegramID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					fmt.Println("No user with that Telegram id.")
					return nil
				}
				return fmt.Errorf("get user: %w", err)
			}

			fmt.Printf("User %s (telegram id %s)\n", user.ID, user.TelegramID)
			if user.Username != nil {
				fmt.Printf("  Username: %s\n", *user.Username)
			}
			fmt.Printf("  Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().StringVar(&telegramID, "telegram-id", "", "Telegram id (required)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ticvision/ticvision/cmd/configure/commands"
	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/tui"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}

	v := commands.NewViper()
	var email string

	root := &cobra.Command{
		Use:          "ticvision-tui",
		Short:        "Browse a user's TicVision chart in the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			settings, err := commands.LoadSettings(v)
			if err != nil {
				return err
			}
			db, err := database.New(settings.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			user, err := database.NewUserRepository(db).GetByEmail(cmd.Context(), strings.TrimSpace(email))
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("no user with email %s", email)
				}
				return fmt.Errorf("failed to load user: %w", err)
			}

			events := database.NewEventRepository(db)
			categories := database.NewCategoryRepository(db)
			source := tui.SourceFunc(func(ctx context.Context) ([]models.Event, []models.CategorySummary, error) {
				evs, err := events.ListByUser(ctx, user.ID)
				if err != nil {
					return nil, nil, err
				}
				// colors fall back to hashing when summaries are unavailable
				summaries, err := categories.ListByUser(ctx, user.ID)
				if err != nil {
					summaries = nil
				}
				return evs, summaries, nil
			})

			p := tea.NewProgram(tui.New(source, settings.Location()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	commands.BindRootFlags(root, v)
	root.Flags().StringVar(&email, "email", "", "Account email (required)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

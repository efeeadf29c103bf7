package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/models"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the per-user API rate (e.g. 10-S, 100-M). Stored in database.",
	}
	cmd.AddCommand(newRatelimitListCmd(v))
	cmd.AddCommand(newRatelimitSetCmd(v))
	return cmd
}

func newRatelimitListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			c, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintf(out, "No rate limit configuration in database; the server uses %s.\n", middleware.DefaultRatelimitRate)
				return nil
			}
			fmt.Fprintln(out, "Rate limit configuration:")
			fmt.Fprintf(out, "  Rate: %s\n", c.Rate)
			return nil
		},
	}
}

// validateRate checks rate against the limiter's formatted syntax
func validateRate(rate string) (string, error) {
	rate = strings.ToUpper(strings.TrimSpace(rate))
	if rate == "" {
		return "", errors.New("--rate is required (e.g. 10-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return "", fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return rate, nil
}

func newRatelimitSetCmd(v *viper.Viper) *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update rate limit (e.g. 10-S, 100-M, 1000-H). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := validateRate(rate)
			if err != nil {
				return err
			}

			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.NewRatelimitConfigRepository(db).Set(cmd.Context(), &models.RatelimitConfig{Rate: normalized}); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rate limit configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 10-S, 100-M, 1000-H) (required)")
	return cmd
}

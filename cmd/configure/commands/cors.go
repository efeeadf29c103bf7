package commands

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the browser origins allowed to call the API. The server reloads this every minute.",
	}
	cmd.AddCommand(newCorsListCmd(v))
	cmd.AddCommand(newCorsSetCmd(v))
	return cmd
}

func newCorsListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			c, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "No CORS configuration in database. Use 'cors set' to add one.")
				return nil
			}
			fmt.Fprintln(out, "CORS configuration:")
			for _, origin := range database.AllowedOriginsSlice(c.AllowedOrigins) {
				fmt.Fprintf(out, "  Allowed origin: %s\n", origin)
			}
			fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
			fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
			return nil
		},
	}
}

// normalizeOrigins validates a comma-separated origin list and returns it trimmed
func normalizeOrigins(raw string) (string, error) {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o != "*" {
			u, err := url.Parse(o)
			if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
				return "", fmt.Errorf("invalid origin %q (expected scheme://host[:port])", o)
			}
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return "", errors.New("--origins is required (comma-separated list)")
	}
	return strings.Join(origins, ","), nil
}

func newCorsSetCmd(v *viper.Viper) *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := normalizeOrigins(origins)
			if err != nil {
				return err
			}
			if maxAge < 0 {
				return errors.New("--max-age cannot be negative")
			}

			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			c := &models.CorsConfig{
				AllowedOrigins:   normalized,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(cmd.Context(), c); err != nil {
				return fmt.Errorf("set cors config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}

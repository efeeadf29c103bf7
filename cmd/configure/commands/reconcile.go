package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/database"
)

// NewReconcileCmd creates the reconcile command. It rebuilds category summaries
// from the event store immediately instead of waiting for the worker schedule.
func NewReconcileCmd(v *viper.Viper) *cobra.Command {
	var email string
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild category counts and colors from events",
		Example: "  ticvision-configure reconcile --email me@example.com\n" +
			"  ticvision-configure reconcile --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if (email == "") == !all {
				return errors.New("exactly one of --email or --all is required")
			}

			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			ctx := cmd.Context()
			users := database.NewUserRepository(db)
			categories := database.NewCategoryRepository(db)

			var ids []uuid.UUID
			if all {
				ids, err = users.ListIDs(ctx)
				if err != nil {
					return err
				}
			} else {
				user, err := users.GetByEmail(ctx, email)
				if err != nil {
					if errors.Is(err, database.ErrNotFound) {
						return fmt.Errorf("no user with email %s", email)
					}
					return fmt.Errorf("failed to load user: %w", err)
				}
				ids = []uuid.UUID{user.ID}
			}

			failed := 0
			for _, id := range ids {
				res, err := categories.Reconcile(ctx, id, analytics.HashColor)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d events, %d created, %d updated, %d deleted\n",
					id, res.EventCount, res.Created, res.Updated, res.Deleted)
			}
			if failed > 0 {
				return fmt.Errorf("reconciliation failed for %d of %d users", failed, len(ids))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Reconcile a single account")
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every account")
	return cmd
}

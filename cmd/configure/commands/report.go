package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/export"
	"github.com/ticvision/ticvision/internal/validation"
)

type reportOptions struct {
	email      string
	rangeName  string
	date       string
	categories []string
	mode       string
	sort       string
	format     string
	out        string
	width      int
	height     int
}

// query validates the selector flags and builds the pipeline query
func (o reportOptions) query() (analytics.Query, export.Format, error) {
	if strings.TrimSpace(o.email) == "" {
		return analytics.Query{}, "", errors.New("--email is required")
	}
	rng, err := analytics.ParseRange(o.rangeName)
	if err != nil {
		return analytics.Query{}, "", err
	}
	mode, err := analytics.ParseMode(o.mode)
	if err != nil {
		return analytics.Query{}, "", err
	}
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return analytics.Query{}, "", err
	}
	if rng == analytics.RangeSpecificDate {
		if o.date == "" {
			return analytics.Query{}, "", errors.New("--date is required for the specificDate range")
		}
		if err := validation.ValidateEventDate(o.date); err != nil {
			return analytics.Query{}, "", err
		}
	}
	return analytics.Query{
		Range:        rng,
		SpecificDate: o.date,
		Categories:   o.categories,
		Mode:         mode,
		Sort:         analytics.ParseSortDirection(o.sort),
	}, format, nil
}

// NewReportCmd creates the report command, which exports a user's chart without the API
func NewReportCmd(v *viper.Viper) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export a user's chart or table to a file",
		Example: "  ticvision-configure report --email me@example.com --range lastMonth --mode avg --format pdf\n" +
			"  ticvision-configure report --email me@example.com --range today --category Vocal --format csv --out -",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, format, err := opts.query()
			if err != nil {
				return err
			}

			db, settings, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			ctx := cmd.Context()
			user, err := database.NewUserRepository(db).GetByEmail(ctx, strings.TrimSpace(opts.email))
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("no user with email %s", opts.email)
				}
				return fmt.Errorf("failed to load user: %w", err)
			}

			events, err := database.NewEventRepository(db).ListByUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to load events: %w", err)
			}
			summaries, err := database.NewCategoryRepository(db).ListByUser(ctx, user.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: category colors unavailable: %v\n", err)
				summaries = nil
			}

			now := time.Now().In(settings.Location())
			res := analytics.Run(events, summaries, q, now)

			var buf bytes.Buffer
			if err := export.Write(&buf, format, res, export.Options{
				Title:  fmt.Sprintf("TicVision report: %s, %s", res.Query.Range, res.Query.Mode.Label()),
				Width:  opts.width,
				Height: opts.height,
			}); err != nil {
				return fmt.Errorf("failed to render %s: %w", format, err)
			}

			if opts.out == "-" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			path := opts.out
			if path == "" {
				path = export.Filename(format, now, string(res.Query.Range), string(res.Query.Mode))
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d rows, %d categories)\n", path, len(res.Table.Rows), len(res.Series))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&opts.rangeName, "range", string(analytics.RangeAll), "Time range: all, today, lastWeek, lastMonth, last3Months, last6Months, lastYear, specificDate")
	cmd.Flags().StringVar(&opts.date, "date", "", "Day for the specificDate range (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&opts.categories, "category", nil, "Category to include (repeatable; default all)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(analytics.ModeAvg), "Aggregation: avg, total or count")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Bucket order: asc or desc")
	cmd.Flags().StringVar(&opts.format, "format", string(export.FormatCSV), "Output format: csv, svg, png, pdf or json")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output path, - for stdout (default generated file name)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Chart width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Chart height in pixels")
	return cmd
}

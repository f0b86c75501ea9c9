package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lg/glucose-api/internal/bootstrap"
	"lg/glucose-api/internal/glucose"
)

var (
	windowDays int
	trendDays  int
	dailyDate  string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Aggregate statistics over a trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			m, err := app.Engine.PeriodMetrics(ctx, userID, windowDays)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		})
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Per-day aggregates, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			trend, err := app.Engine.Trend(ctx, userID, trendDays)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), trend)
		})
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Summary of one day of readings",
	Long:  "The daily command summarizes one local day. Without --date it reports today in the user's timezone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var date *glucose.Date
		if dailyDate != "" {
			d, err := glucose.ParseDate(dailyDate)
			if err != nil {
				return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
			}
			date = &d
		}
		return run(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			s, err := app.Engine.DailySummary(ctx, userID, date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		})
	},
}

var earliestCmd = &cobra.Command{
	Use:   "earliest",
	Short: "Date of the user's first reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			d, err := app.Engine.EarliestDate(ctx, userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]*glucose.Date{"date": d})
		})
	},
}

func init() {
	metricsCmd.Flags().IntVar(&windowDays, "window-days", 30, "Trailing window in days")
	trendCmd.Flags().IntVar(&trendDays, "days", 7, "Number of trailing days")
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "Day to summarize (YYYY-MM-DD)")

	for _, cmd := range []*cobra.Command{metricsCmd, trendCmd, dailyCmd, earliestCmd} {
		requireUser(cmd)
		rootCmd.AddCommand(cmd)
	}
}

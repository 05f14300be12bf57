package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lumonew/internal/feed"
	"lumonew/internal/models"
	"lumonew/internal/services"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List audit records matching filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.cleanup()

		from, to, err := dateRangeFlags(cmd, a.cfg.Location)
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		category, _ := cmd.Flags().GetString("category")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		criteria := models.AuditFilterCriteria{
			Search:    search,
			Category:  category,
			Status:    status,
			DateRange: models.DateRange{Start: from, End: to},
		}

		var session services.Session
		result, _ := session.Run(cmd.Context(), a.query, criteria, limit)
		if result.Failed {
			return fmt.Errorf("audit store query failed; see logs")
		}

		out := cmd.OutOrStdout()
		if err := writeRecords(out, result.Records, a.cfg.Location); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return writeStats(out, result.Stats, result.StatsSource)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the audit trail for a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.cleanup()

		from, to, err := dateRangeFlags(cmd, a.cfg.Location)
		if err != nil {
			return err
		}
		return printStats(cmd.Context(), cmd.OutOrStdout(), a.query, from, to)
	},
}

func printStats(ctx context.Context, w io.Writer, q services.AuditQueryServicer, from, to *time.Time) error {
	result := q.Stats(ctx, from, to)
	if result.Failed {
		return fmt.Errorf("audit store stats failed; see logs")
	}
	return writeStats(w, result.Stats, services.StatsFromStore)
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.cleanup()

		f := feed.New(a.query, feedConfig(cmd, a))
		if err := f.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("loading recent activity: %w", err)
		}
		return writeRecords(cmd.OutOrStdout(), f.Snapshot().Records, a.cfg.Location)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow recent activity until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		f := feed.New(a.query, feedConfig(cmd, a),
			feed.WithClock(a.clock),
			feed.WithObserver(func(snap feed.Snapshot) {
				_ = writeSnapshot(out, snap, a.cfg.Location)
			}),
		)
		if err := f.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		f.Stop()
		return nil
	},
}

func feedConfig(cmd *cobra.Command, a *app) feed.Config {
	cfg := feed.Config{Size: a.cfg.FeedSize, Interval: a.cfg.FeedInterval}
	if size, _ := cmd.Flags().GetInt("size"); size > 0 {
		cfg.Size = size
	}
	if cmd.Flags().Lookup("interval") != nil {
		if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
			cfg.Interval = interval
		}
	}
	return cfg
}

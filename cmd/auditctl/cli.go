package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"lumonew/internal/audit"
	"lumonew/internal/config"
	"lumonew/internal/database"
	"lumonew/internal/logger"
	"lumonew/internal/services"
	"lumonew/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "auditctl",
	Short: "LUMONEW audit trail CLI",
	Long:  `Query, summarize and follow the LUMONEW audit trail from a terminal.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logger.Init("production", level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every subcommand needs.
type app struct {
	cfg     *config.Config
	clock   audit.Clock
	query   services.AuditQueryServicer
	cleanup func()
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.AuditStore = backend
	}

	clock := audit.SystemClock{Location: cfg.Location}
	cleanup := func() {}

	var db *gorm.DB
	if cfg.AuditStore != config.StoreREST {
		dbConfig, err := database.NewConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load database configuration: %w", err)
		}
		manager, err := database.NewManager(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = func() { _ = manager.Close() }
		db = manager.DB()
	}

	s, err := store.Open(cfg, db, clock)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		clock:   clock,
		query:   services.NewAuditQueryService(s, clock),
		cleanup: cleanup,
	}, nil
}

// parseFlagDate reads an RFC3339 timestamp or a YYYY-MM-DD date in loc.
func parseFlagDate(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use RFC3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}

func dateRangeFlags(cmd *cobra.Command, loc *time.Location) (from, to *time.Time, err error) {
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	if from, err = parseFlagDate(fromFlag, loc, false); err != nil {
		return nil, nil, err
	}
	if to, err = parseFlagDate(toFlag, loc, true); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("--from must not be after --to")
	}
	return from, to, nil
}

func init() {
	rootCmd.AddCommand(queryCmd, statsCmd, recentCmd, watchCmd)
	rootCmd.PersistentFlags().String("store", "", "audit store backend (database or rest), overrides AUDIT_STORE")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level")

	for _, c := range []*cobra.Command{queryCmd, statsCmd} {
		c.Flags().String("from", "", "window start (RFC3339 or YYYY-MM-DD)")
		c.Flags().String("to", "", "window end, inclusive (RFC3339 or YYYY-MM-DD)")
	}
	queryCmd.Flags().StringP("search", "s", "", "free-text search; with --category user it matches the user email")
	queryCmd.Flags().StringP("category", "c", "", "item, category, location, user, system or a table name")
	queryCmd.Flags().String("status", "", "created, updated, deleted, stock_adjusted, ... or an operation")
	queryCmd.Flags().IntP("limit", "n", store.DefaultLimit, "max records")

	recentCmd.Flags().IntP("size", "n", 0, "number of records (defaults to FEED_SIZE)")
	watchCmd.Flags().IntP("size", "n", 0, "number of records (defaults to FEED_SIZE)")
	watchCmd.Flags().Duration("interval", 0, "refresh interval (defaults to FEED_INTERVAL)")
}

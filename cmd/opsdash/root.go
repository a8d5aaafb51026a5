package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/warp/booking-ops/api"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/ingest"
	"github.com/warp/booking-ops/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "opsdash",
	Short: "Booking operations dashboard backend",
	Long: `opsdash ingests pasted spreadsheet exports of bookings, accounts and
spend, derives account readiness, tiers, blocks and reward payouts, and
serves them to the dashboard UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadAppConfig(cmd)
	},
}

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string

	appConfig Config
	logger    = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath, "TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
}

func loadAppConfig(cmd *cobra.Command) error {
	cfg, err := loadConfig(flagConfig, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if flagDB != "" {
		cfg.Server.DB = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	appConfig = cfg
	logger = newLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	return nil
}

// app is the shared wiring of every command: store, controller and
// the baseline settings.
type app struct {
	store    *sqlite.Store
	ctrl     *ingest.Controller
	baseline core.Settings
}

func openApp(ctx context.Context) (*app, error) {
	baseline, err := appConfig.BaselineSettings()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(appConfig.Server.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctrl, err := ingest.NewController(ctx, store, baseline,
		ingest.WithLogger(logger),
		ingest.WithSweepObserver(api.ObserveSweep),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{store: store, ctrl: ctrl, baseline: baseline}, nil
}

func (a *app) Close() error { return a.store.Close() }

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"claritychain/internal/backend"
	"claritychain/internal/config"
	"claritychain/internal/log"
	"claritychain/internal/services"

	"github.com/spf13/cobra"
)

type reportFlags struct {
	backend  string
	dbPath   string
	seedFile string
	timeout  time.Duration
	verbose  bool
}

// session is an opened ledger plus the dashboard reading it.
type session struct {
	dash    *services.DashboardService
	cleanup backend.CleanupFunc
}

func (s *session) Close() {
	if s.cleanup != nil {
		_ = s.cleanup()
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	flags := &reportFlags{
		backend:  cfg.DataBackend,
		dbPath:   cfg.SQLiteDBPath,
		seedFile: cfg.SeedFile,
		timeout:  30 * time.Second,
	}

	root := &cobra.Command{
		Use:   "claritychain-report",
		Short: "Print ClarityChain dashboard aggregates",
		Long: `Reads the configured ledger backend and prints the same aggregates the
dashboard API serves.

Backend selection follows DATA_BACKEND, SQLITE_DB_PATH and SEED_FILE unless
overridden by flags.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.backend, "backend", flags.backend, "ledger backend (memory or sqlite)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", flags.dbPath, "SQLite database path")
	root.PersistentFlags().StringVar(&flags.seedFile, "seed", flags.seedFile, "JSON seed file for a fresh ledger")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", flags.timeout, "overall timeout")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log backend activity to stderr")

	opts := services.DashboardOptions{
		Normalization:   cfg.Normalization(),
		HallOfFameLimit: cfg.HallOfFameLimit,
		FeedLimit:       cfg.FeedLimit,
		CacheTTL:        cfg.CacheTTL,
	}
	open := func(cmd *cobra.Command) (*session, context.Context, context.CancelFunc, error) {
		ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
		s, err := openSession(ctx, cmd.ErrOrStderr(), flags, opts)
		if err != nil {
			cancel()
			return nil, nil, nil, err
		}
		return s, ctx, cancel, nil
	}

	root.AddCommand(
		newTotalsCmd(open),
		newHallOfFameCmd(open),
		newCategoriesCmd(open),
		newFeedCmd(open),
		newProgressCmd(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*session, context.Context, context.CancelFunc, error)

func openSession(ctx context.Context, stderr io.Writer, flags *reportFlags, opts services.DashboardOptions) (*session, error) {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, Component: log.ComponentBackend, Output: stderr})

	bcfg := backend.Config{
		Type:         backend.BackendType(flags.backend),
		SQLiteDBPath: flags.dbPath,
		SeedFile:     flags.seedFile,
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", flags.backend, err)
	}
	return &session{dash: services.NewDashboardService(res.Store, opts), cleanup: res.Cleanup}, nil
}

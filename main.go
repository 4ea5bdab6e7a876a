// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oobort/picpoll-lite/adjust"
	"github.com/oobort/picpoll-lite/catalog"
	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/db"
	"github.com/oobort/picpoll-lite/ledger"
	"github.com/oobort/picpoll-lite/router"
	"github.com/oobort/picpoll-lite/settings"
	"github.com/oobort/picpoll-lite/voting"
)

// redisPrefix namespaces every key the vote and adjustment stores write.
const redisPrefix = "picpoll"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env file not loaded", "error", err)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &cliparse.Config{}
	rootCmd := &cobra.Command{
		Use:           "picpoll",
		Short:         "Photo voting service",
		Long:          "PicPoll records one vote per visitor per image and serves live, adjustable standings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
	cliparse.BindFlags(rootCmd.PersistentFlags(), cfg)

	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(migrateCmd(cfg))
	rootCmd.AddCommand(statsCmd(cfg))
	rootCmd.AddCommand(adjustCmd(cfg))
	rootCmd.AddCommand(itemCmd(cfg))
	rootCmd.AddCommand(tokenCmd(cfg))
	return rootCmd
}

func serveCmd(cfg *cliparse.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
}

func setupLogging(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == cliparse.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// app holds the wired stores and service shared by every command.
type app struct {
	cfg      cliparse.Config
	conn     *sql.DB
	rdb      *goredis.Client
	settings *settings.Provider
	items    *catalog.Store
	svc      *voting.Service
}

// openApp resolves configuration, connects storage, creates the schema and
// builds the voting service on the configured vote store.
func openApp(ctx context.Context, flags cliparse.Config) (*app, error) {
	cfg, err := cliparse.Resolve(flags)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogFormat)

	conn, driver, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchemaContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}

	provider, err := settings.NewProvider(cfg.SettingsPath)
	if err != nil {
		conn.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		conn:     conn,
		settings: provider,
		items:    catalog.NewStore(conn, driver),
	}

	var votes ledger.Ledger = ledger.NewSQLLedger(conn)
	var adjustments adjust.Store = adjust.NewSQLStore(conn)
	if cfg.Store == cliparse.StoreRedis {
		rdb, err := db.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.rdb = rdb
		votes = ledger.NewRedisLedger(rdb, redisPrefix)
		adjustments = adjust.NewRedisStore(rdb, redisPrefix)
	}

	a.svc = voting.NewService(votes, adjustments, a.items, provider)
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.conn.Close()
}

func runServe(ctx context.Context, flags cliparse.Config) error {
	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	if cfg.AdminKey == "" {
		slog.Warn("ADMIN_KEY not set, admin API disabled")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.settings.Watch(ctx); err != nil {
		slog.Warn("settings hot reload disabled", "error", err)
	}

	var itemCount int64
	if err := a.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM item`).Scan(&itemCount); err != nil {
		slog.Warn("failed to count catalog items", "error", err)
	}

	server := &http.Server{
		Handler:           router.Wrap(router.NewRouter(a.svc, a.items, cfg), cfg),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening",
			"port", cfg.Port,
			"database", cfg.DatabaseType,
			"store", cfg.Store,
			"items", humanize.Comma(itemCount),
			"options", len(a.settings.Current().OptionLabels),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}

package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fuelgrid/internal/config"
	"github.com/JonMunkholm/fuelgrid/internal/core"
	_ "github.com/JonMunkholm/fuelgrid/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/grid/sink"
	"github.com/JonMunkholm/fuelgrid/internal/logging"
	"github.com/JonMunkholm/fuelgrid/internal/preset"
	"github.com/JonMunkholm/fuelgrid/internal/schema"
	"github.com/JonMunkholm/fuelgrid/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"fetch_max_concurrent", cfg.Fetch.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.EnsureSchema {
		if err := schema.Ensure(ctx, pool); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		slog.Info("schema ensured", "tables", len(schema.Statements))
	}

	var presets *preset.Set
	if cfg.Grid.PresetsFile != "" {
		if presets, err = preset.Load(cfg.Grid.PresetsFile); err != nil {
			slog.Error("failed to load grid presets", "file", cfg.Grid.PresetsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("grid presets loaded", "file", cfg.Grid.PresetsFile, "tables", presets.Tables())
	}

	var exportSink grid.FileSink
	if cfg.Grid.ExportDir != "" {
		exportSink = sink.NewDirSink(cfg.Grid.ExportDir)
		slog.Info("batch exports enabled", "dir", cfg.Grid.ExportDir)
	}

	var storeOpts []core.PgStoreOption
	if cfg.Grid.SkipCounts {
		storeOpts = append(storeOpts, core.WithoutCounts())
	}

	limiter := core.NewFetchLimiter(cfg.Fetch.MaxConcurrent, cfg.Fetch.MaxWaitTime)
	service := core.NewService(core.NewPgStore(pool, storeOpts...), core.ServiceOptions{
		DefaultPageSize: cfg.Grid.DefaultPageSize,
		PageSizeOptions: cfg.Grid.PageSizeOptions,
		FilterDebounce:  cfg.Grid.FilterDebounce,
		FetchTimeout:    cfg.Fetch.Timeout,
		MaxSessions:     cfg.Grid.MaxSessions,
		ExportSink:      exportSink,
		Presets:         presets,
		Limiter:         limiter,
	})

	slog.Info("tables registered",
		"count", core.TableCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("table group", "group", group, "tables", len(core.ByGroup(group)))
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, core.SweepConfig{
		IdleTimeout: cfg.Grid.SessionIdleTimeout,
		Interval:    cfg.Grid.SweepInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Sessions cancel their fetches on close; wait for the slots to drain.
		service.CloseAll()
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for page fetches to finish", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("page fetches did not finish in time", "error", err)
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
	}
}

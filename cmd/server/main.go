package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/locgrid/internal/config"
	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/lang"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/translate"
	"github.com/JonMunkholm/locgrid/internal/web"
)

func main() {
	// Overload lets a local .env win over the inherited environment
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
		"max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"translation_enabled", cfg.Translate.APIKey != "",
		"output_dir", cfg.Output.Dir,
		"input_dir", cfg.Upload.InputDir,
		"history_enabled", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	aliases := lang.DefaultAliases()
	if cfg.Languages.AliasFile != "" {
		aliases, err = lang.LoadAliases(cfg.Languages.AliasFile)
		if err != nil {
			slog.Error("failed to load language aliases", "file", cfg.Languages.AliasFile, "error", err)
			os.Exit(1)
		}
		slog.Info("language aliases loaded", "file", cfg.Languages.AliasFile, "count", aliases.Len())
	}

	// The service treats a nil translator as "translation disabled"
	var tr translate.Translator
	if cfg.Translate.APIKey != "" {
		tr = translate.NewClient(cfg.Translate.Endpoint, cfg.Translate.APIKey, cfg.Translate.Timeout)
	} else {
		slog.Warn("TRANSLATE_API_KEY not set, machine translation disabled")
	}

	ctx := context.Background()

	var history core.HistoryRecorder
	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := core.NewPGHistory(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare save history schema", "error", err)
			os.Exit(1)
		}
		history = pg
	}

	service := core.NewService(cfg, tr, aliases, history)
	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, cfg.Session.JanitorInterval, cfg.Session.IdleTimeout)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for loads to complete", "active", status.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				slog.Warn("loads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectDB opens and pings the save-history pool.
func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// Command penteserver runs the Pente session coordinator: the
// ConnectionLoop, its Registry, and the PostgreSQL-backed AccountStore
// (spec §2). It follows the teacher's cmd/gameserver/main.go shape:
// load config, wire a cancellable root context to SIGINT/SIGTERM,
// connect the database, run migrations, then run the server and its
// background goroutines inside one errgroup.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pente-game/server/internal/account"
	"github.com/pente-game/server/internal/config"
	"github.com/pente-game/server/internal/server"
)

// ConfigPath is the default location of the server's YAML config file.
// PENTE_CONFIG overrides it, mirroring LA2GO_LOGIN_CONFIG in the
// teacher's cmd/gameserver/main.go.
const ConfigPath = "config/penteserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("PENTE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("pente server starting",
		"bind", cfg.BindAddress, "port", cfg.Port, "log_level", cfg.LogLevel,
		"max_connections", cfg.MaxConnections, "max_connections_per_ip", cfg.MaxConnectionsPerIP)

	pool, err := account.OpenPool(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := account.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	store := account.NewPostgresStore(pool)
	hasher := account.NewHasher(0)
	srv := server.New(store, hasher, cfg.MaxConnections, cfg.MaxConnectionsPerIP)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
		if err := srv.Run(gctx, addr); err != nil {
			return fmt.Errorf("connection loop: %w", err)
		}
		return nil
	})

	if cfg.IdleSessionTTLMinutes > 0 {
		ttl := time.Duration(cfg.IdleSessionTTLMinutes) * time.Minute
		interval := ttl / 4
		if interval < time.Second {
			interval = time.Second
		}
		g.Go(func() error {
			slog.Info("starting idle-session reaper", "ttl", ttl, "interval", interval)
			return srv.RunIdleReaper(gctx, ttl, interval)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level. Defaults to
// Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

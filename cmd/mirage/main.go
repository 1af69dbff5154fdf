package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"miragepos/frontend/login"
	"miragepos/frontend/sales"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/config"
	httpserver "miragepos/infrastructure/http"
	"miragepos/infrastructure/notify"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	slog.SetDefault(config.NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("mirage stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		return err
	}

	created, err := login.EnsureAdminUser(ctx, db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		slog.Info("seeded default admin", slog.String("username", cfg.AdminUsername))
	}

	if n, err := sales.RecoverPendingEdits(ctx, db); err != nil {
		slog.Error("pending sale edits not recovered", slog.Int("recovered", n), slog.Any("err", err))
	} else if n > 0 {
		slog.Info("recovered pending sale edits", slog.Int("count", n))
	}

	g, ctx := errgroup.WithContext(ctx)

	var notifier notify.Notifier = notify.NewHub()
	if cfg.RedisAddr != "" {
		client, err := notify.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		relay := notify.NewRedis(client, cfg.NotifyChannel)
		notifier = relay
		g.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	rbacCache := cache.NewRbacRolesCache()
	server := httpserver.NewServer(cfg.AppAddr, db, cache.NewUserSessionCache(), rbac.New(rbacCache), rbacCache, notifier, httpserver.Options{
		SessionTTL:      cfg.SessionTTL,
		SecureCookies:   cfg.SecureCookies,
		LoginRateLimit:  cfg.LoginRateLimit,
		ShutdownTimeout: cfg.ShutdownTimeout,
		AdminUsername:   cfg.AdminUsername,
		AdminPassword:   cfg.AdminPassword,
	})
	if err := server.Start(); err != nil {
		return err
	}
	slog.Info("mirage pos listening", slog.String("addr", cfg.AppAddr))

	g.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})
	return g.Wait()
}

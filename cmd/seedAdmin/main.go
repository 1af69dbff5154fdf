// Command seedAdmin creates the admin account, or resets its password when
// it already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"miragepos/frontend/login"
	"miragepos/infrastructure/config"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	migrationsDir := migrationsSource(cfg.MigrationsDir, resolveMigrationsDir)
	if err := seedAdmin(context.Background(), cfg.SQLitePath, migrationsDir, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	fmt.Printf("seeded admin user (username=%s)\n", cfg.AdminUsername)
}

func seedAdmin(ctx context.Context, dbPath, migrationsDir, username, password string) error {
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return login.UpsertUserPasswordHash(ctx, db, username, rbac.RoleAdmin, password)
}

// embeddedMigrations tells sqlite.ApplyMigrations to use the set compiled
// into the binary.
const embeddedMigrations = ""

// migrationsSource picks the migrations to apply: the configured directory,
// else the source tree's directory, else the embedded set.
func migrationsSource(configured string, resolve func() (string, error)) string {
	if configured != "" {
		return configured
	}
	dir, err := resolve()
	if err != nil {
		slog.Info("seedAdmin: using embedded migrations", slog.Any("reason", err))
		return embeddedMigrations
	}
	return dir
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}

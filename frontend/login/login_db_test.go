package login

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/argon"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

func openLoginTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "login-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func countUsers(t *testing.T, db *sqlite.DB) int {
	t.Helper()
	var n int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		n, err = tx.NewSelect().Model((*models.User)(nil)).Count(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestEnsureAdminUserOnlyOnEmptyTable(t *testing.T) {
	db := openLoginTestDB(t)

	created, err := EnsureAdminUser(context.Background(), db, "Administrator", "Campion#123")
	if err != nil || !created {
		t.Fatalf("expected admin created, created=%v err=%v", created, err)
	}
	created, err = EnsureAdminUser(context.Background(), db, "Other", "Another#123")
	if err != nil || created {
		t.Fatalf("expected no second admin, created=%v err=%v", created, err)
	}
	if n := countUsers(t, db); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}

func TestLoginChecksHashAndExactUsername(t *testing.T) {
	db := openLoginTestDB(t)
	if _, err := EnsureAdminUser(context.Background(), db, "Administrator", "Campion#123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	user, err := Login(context.Background(), db, "Administrator", "Campion#123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != "admin" {
		t.Fatalf("expected admin role, got %q", user.Role)
	}

	if _, err := Login(context.Background(), db, "Administrator", "wrong-password"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := Login(context.Background(), db, "administrator", "Campion#123"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("expected case-sensitive username, got %v", err)
	}
	if _, err := Login(context.Background(), db, "", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertUserPasswordHashResetsPassword(t *testing.T) {
	db := openLoginTestDB(t)

	if err := UpsertUserPasswordHash(context.Background(), db, "cashier", "staff", "first-pass"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := UpsertUserPasswordHash(context.Background(), db, "cashier", "admin", "second-pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n := countUsers(t, db); n != 1 {
		t.Fatalf("expected upsert to keep 1 user, got %d", n)
	}
	user, err := Login(context.Background(), db, "cashier", "second-pass")
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if user.Role != "admin" {
		t.Fatalf("expected role updated, got %q", user.Role)
	}
	if err := UpsertUserPasswordHash(context.Background(), db, "cashier", "owner", "second-pass"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected unknown role rejected, got %v", err)
	}
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	db := openLoginTestDB(t)
	weak, err := argon.CreateHash("Campion#123", &argon.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.User{Username: "old", PasswordHash: weak, Role: "staff"}).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	user, err := Login(context.Background(), db, "old", "Campion#123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if argon.NeedsRehash(user.PasswordHash, argon.DefaultParams) {
		t.Fatalf("expected hash upgraded, got %q", user.PasswordHash)
	}
	if _, err := Login(context.Background(), db, "old", "Campion#123"); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
}

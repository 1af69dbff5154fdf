package login

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/argon"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// Usernames match exactly; "admin" and "Admin" are different accounts.
func findUserByUsername(ctx context.Context, tx bun.IDB, username string) (models.User, error) {
	var user models.User
	err := tx.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login checks username and password against the stored argon2id hash.
func Login(ctx context.Context, db *sqlite.DB, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, apperr.Validation("username and password are required")
	}

	var user models.User
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = findUserByUsername(ctx, tx, username)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, apperr.Storage(fmt.Errorf("load user: %w", err))
	}

	ok, err := argon.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if argon.NeedsRehash(user.PasswordHash, argon.DefaultParams) {
		if err := rehash(ctx, db, &user, password); err != nil {
			slog.Warn("login: password rehash failed", slog.String("username", user.Username), slog.Any("err", err))
		}
	}
	return user, nil
}

// rehash upgrades a hash made with older, weaker params after a good login.
func rehash(ctx context.Context, db *sqlite.DB, user *models.User, password string) error {
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("password_hash = ?", hash).
			Where("id = ?", user.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return apperr.Storage(fmt.Errorf("rehash user %d: %w", user.ID, err))
	}
	user.PasswordHash = hash
	return nil
}

// EnsureAdminUser creates the bootstrap admin when the users table is empty.
// It reports whether an account was created.
func EnsureAdminUser(ctx context.Context, db *sqlite.DB, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, apperr.Validation("bootstrap admin username and password are required")
	}
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return false, err
	}

	created := false
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := tx.NewSelect().Model((*models.User)(nil)).Count(ctx)
		if err != nil {
			return apperr.Storage(fmt.Errorf("count users: %w", err))
		}
		if n > 0 {
			return nil
		}
		user := models.User{
			Username:     username,
			PasswordHash: hash,
			Role:         rbac.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("insert admin: %w", err))
		}
		created = true
		return nil
	})
	return created, err
}

// UpsertUserPasswordHash creates username with role, or resets its password
// and role when it already exists.
func UpsertUserPasswordHash(ctx context.Context, db *sqlite.DB, username, role, rawPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.Validation("username is required")
	}
	if !rbac.ValidRole(role) {
		return apperr.Validation("unknown role %q", role)
	}
	if err := ValidatePasswordPolicy(rawPassword); err != nil {
		return err
	}
	hash, err := argon.CreateHash(rawPassword, argon.DefaultParams)
	if err != nil {
		return err
	}

	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash = excluded.password_hash,
  role = excluded.role`, username, hash, role, time.Now().UTC())
		if err != nil {
			return apperr.Storage(fmt.Errorf("upsert user %s: %w", username, err))
		}
		return nil
	})
}

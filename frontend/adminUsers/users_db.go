package adminusers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"miragepos/frontend/login"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/argon"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

var ErrLastAdmin = fmt.Errorf("%w: cannot delete the last admin", apperr.ErrConflict)

// ListUsers returns every account without password hashes.
func ListUsers(ctx context.Context, db *sqlite.DB) ([]UserView, error) {
	users := make([]UserView, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw("SELECT id, username, role, created_at FROM users ORDER BY id ASC").Scan(ctx, &users)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// CreateUser adds an account. An empty role means staff; a taken username is
// ErrConflict.
func CreateUser(ctx context.Context, db *sqlite.DB, in NewUserInput) (UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = rbac.RoleStaff
	}
	if err := validate.Struct(in); err != nil {
		return UserView{}, err
	}
	if !rbac.ValidRole(in.Role) {
		return UserView{}, apperr.Validation("unknown role %q", in.Role)
	}
	if err := login.ValidatePasswordPolicy(in.Password); err != nil {
		return UserView{}, err
	}
	hash, err := argon.CreateHash(in.Password, argon.DefaultParams)
	if err != nil {
		return UserView{}, err
	}

	user := models.User{Username: in.Username, PasswordHash: hash, Role: in.Role, CreatedAt: time.Now().UTC()}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("username = ?", user.Username).Exists(ctx)
		if err != nil {
			return apperr.Storage(fmt.Errorf("check username: %w", err))
		}
		if exists {
			return fmt.Errorf("%w: username %q already exists", apperr.ErrConflict, user.Username)
		}
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("insert user: %w", err))
		}
		return nil
	})
	if err != nil {
		return UserView{}, err
	}
	return UserView{ID: user.ID, Username: user.Username, Role: user.Role, CreatedAt: user.CreatedAt}, nil
}

// DeleteUser removes an account. The last admin cannot be removed.
func DeleteUser(ctx context.Context, db *sqlite.DB, id int64) (UserView, error) {
	var user models.User
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&user).Where("id = ?", id).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user %d", id)
		}
		if err != nil {
			return apperr.Storage(fmt.Errorf("load user: %w", err))
		}
		if user.Role == rbac.RoleAdmin {
			admins, err := tx.NewSelect().Model((*models.User)(nil)).Where("role = ?", rbac.RoleAdmin).Count(ctx)
			if err != nil {
				return apperr.Storage(fmt.Errorf("count admins: %w", err))
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}
		if _, err := tx.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("delete user: %w", err))
		}
		return nil
	})
	if err != nil {
		return UserView{}, err
	}
	return UserView{ID: user.ID, Username: user.Username, Role: user.Role, CreatedAt: user.CreatedAt}, nil
}

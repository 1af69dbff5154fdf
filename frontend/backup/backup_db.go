// Package backup exports the whole store as one JSON document, restores it,
// and writes spreadsheet CSVs of products and sales.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"miragepos/frontend/login"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/argon"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// FileName is the download name of a backup taken at now.
func FileName(now time.Time) string {
	return "mirage_pos_backup_" + now.Format(time.DateOnly) + ".json"
}

// ExportSnapshot reads every table in one read transaction.
func ExportSnapshot(ctx context.Context, db *sqlite.DB) (Snapshot, error) {
	snap := Snapshot{
		Products:   make([]models.Product, 0),
		Sales:      make([]models.Sale, 0),
		Shipments:  make([]models.Shipment, 0),
		Vendors:    make([]models.Vendor, 0),
		Settings:   make([]models.Settings, 0),
		Quotations: make([]QuotationDoc, 0),
		Users:      make([]UserDoc, 0),
	}
	quotations := make([]models.Quotation, 0)
	users := make([]models.User, 0)

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, q := range []*bun.SelectQuery{
			tx.NewSelect().Model(&snap.Products),
			tx.NewSelect().Model(&snap.Sales),
			tx.NewSelect().Model(&quotations),
			tx.NewSelect().Model(&snap.Shipments),
			tx.NewSelect().Model(&snap.Vendors),
			tx.NewSelect().Model(&snap.Settings),
			tx.NewSelect().Model(&users),
		} {
			if err := q.OrderExpr("id ASC").Scan(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, apperr.Storage(fmt.Errorf("export snapshot: %w", err))
	}

	for _, q := range quotations {
		snap.Quotations = append(snap.Quotations, QuotationDoc{Quotation: q})
	}
	for _, u := range users {
		snap.Users = append(snap.Users, UserDoc{
			ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role, CreatedAt: u.CreatedAt,
		})
	}
	return snap, nil
}

// WriteJSON encodes snap as the backup file.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ReadJSON decodes a backup file. Unknown fields are ignored so files from
// newer editions still load.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, apperr.Validation("invalid backup file: %v", err)
	}
	return snap, nil
}

// clearOrder lists every table a restore empties.
var clearOrder = []string{"sale_edits", "sales", "quotations", "shipments", "products", "vendors", "settings", "users"}

// ImportSnapshot replaces the whole store with snap in one write
// transaction. Record ids are kept. Arrays missing from the file leave their
// table empty; callers re-run the bootstrap admin check afterwards.
func ImportSnapshot(ctx context.Context, db *sqlite.DB, snap Snapshot) (ImportResult, error) {
	users, hashed, err := prepareUsers(snap.Users)
	if err != nil {
		return ImportResult{}, err
	}
	quotations := make([]models.Quotation, 0, len(snap.Quotations))
	for _, q := range snap.Quotations {
		if q.CustomerType == "" {
			q.CustomerType = q.PriceType
		}
		if q.CustomerType == "" {
			q.CustomerType = "retail"
		}
		quotations = append(quotations, q.Quotation)
	}

	res := ImportResult{
		Products:    len(snap.Products),
		Sales:       len(snap.Sales),
		Quotations:  len(quotations),
		Shipments:   len(snap.Shipments),
		Vendors:     len(snap.Vendors),
		Settings:    len(snap.Settings),
		Users:       len(users),
		HashedUsers: hashed,
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		inserts := []struct {
			name  string
			n     int
			model any
		}{
			{"products", len(snap.Products), &snap.Products},
			{"sales", len(snap.Sales), &snap.Sales},
			{"quotations", len(quotations), &quotations},
			{"shipments", len(snap.Shipments), &snap.Shipments},
			{"vendors", len(snap.Vendors), &snap.Vendors},
			{"settings", len(snap.Settings), &snap.Settings},
			{"users", len(users), &users},
		}
		for _, in := range inserts {
			if in.n == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(in.model).Exec(ctx); err != nil {
				return fmt.Errorf("restore %s: %w", in.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, apperr.Storage(fmt.Errorf("import snapshot: %w", err))
	}
	return res, nil
}

// prepareUsers turns backup users into rows, hashing legacy plaintext
// passwords. It returns how many were hashed.
func prepareUsers(docs []UserDoc) ([]models.User, int, error) {
	users := make([]models.User, 0, len(docs))
	hashed := 0
	for _, d := range docs {
		username := strings.TrimSpace(d.Username)
		if username == "" {
			return nil, 0, apperr.Validation("backup user %d has no username", d.ID)
		}
		role := d.Role
		if !rbac.ValidRole(role) {
			role = rbac.RoleStaff
		}
		hash := d.PasswordHash
		if hash == "" {
			secret := d.Password
			if argon.IsHash(secret) {
				hash = secret
			} else {
				if secret == "" {
					return nil, 0, apperr.Validation("backup user %q has no password", username)
				}
				var err error
				hash, err = argon.CreateHash(secret, argon.DefaultParams)
				if err != nil {
					return nil, 0, err
				}
				hashed++
			}
		}
		created := d.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		users = append(users, models.User{ID: d.ID, Username: username, PasswordHash: hash, Role: role, CreatedAt: created})
	}
	return users, hashed, nil
}

// Restore imports snap and then makes sure an admin account exists, as a
// backup without users would otherwise lock everyone out.
func Restore(ctx context.Context, db *sqlite.DB, snap Snapshot, adminUsername, adminPassword string) (ImportResult, error) {
	res, err := ImportSnapshot(ctx, db, snap)
	if err != nil {
		return res, err
	}
	created, err := login.EnsureAdminUser(ctx, db, adminUsername, adminPassword)
	if err != nil {
		return res, fmt.Errorf("restore: ensure admin: %w", err)
	}
	if created {
		slog.Warn("backup: restored file had no users, bootstrap admin created", slog.String("username", adminUsername))
	}
	return res, nil
}

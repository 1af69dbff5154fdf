package vendors

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

type VendorInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Contact string `json:"contact" validate:"max=200"`
}

func CreateVendor(ctx context.Context, db *sqlite.DB, in VendorInput) (models.Vendor, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	if err := validate.Struct(in); err != nil {
		return models.Vendor{}, err
	}
	v := models.Vendor{Name: in.Name, Contact: in.Contact}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&v).Exec(ctx)
		return err
	})
	if err != nil {
		return models.Vendor{}, apperr.Storage(fmt.Errorf("insert vendor: %w", err))
	}
	return v, nil
}

// ListVendors returns vendors by name. Products reference vendors by name
// only, so deleting one leaves its products untouched.
func ListVendors(ctx context.Context, db *sqlite.DB) ([]models.Vendor, error) {
	vendors := make([]models.Vendor, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&vendors).OrderExpr("name ASC, id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list vendors: %w", err))
	}
	return vendors, nil
}

func DeleteVendor(ctx context.Context, db *sqlite.DB, id int64) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Vendor)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return apperr.Storage(fmt.Errorf("delete vendor %d: %w", id, err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("vendor %d", id)
		}
		return nil
	})
}

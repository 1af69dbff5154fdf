// Package products is the inventory catalogue: product CRUD and the price
// sanity check shown before saving.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

// PriceWarnings reports a retail price below cost. It is advisory; callers
// proceed once the user confirms.
func PriceWarnings(in ProductInput) error {
	if money.D(in.RetailPrice).LessThan(money.D(in.CostPrice)) {
		return &apperr.IntegrityWarning{
			Field: "retailPrice",
			Message: fmt.Sprintf("retail price %s is lower than cost price %s",
				money.Format(in.RetailPrice), money.Format(in.CostPrice)),
		}
	}
	return nil
}

func checkInput(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Vendor = strings.TrimSpace(in.Vendor)
	if in.Vendor == "" {
		in.Vendor = DefaultVendor
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	if !in.Confirm {
		return PriceWarnings(*in)
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Category = in.Category
	p.Vendor = in.Vendor
	p.CostPrice = in.CostPrice
	p.RetailPrice = in.RetailPrice
	p.WholesalePrice = in.WholesalePrice
	p.Stock = in.Stock
}

func CreateProduct(ctx context.Context, db *sqlite.DB, in ProductInput) (models.Product, error) {
	if err := checkInput(&in); err != nil {
		return models.Product{}, err
	}
	var p models.Product
	in.apply(&p)
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&p).Exec(ctx)
		return err
	})
	if err != nil {
		return models.Product{}, apperr.Storage(fmt.Errorf("insert product: %w", err))
	}
	return p, nil
}

// UpdateProduct overwrites every editable field, stock included.
func UpdateProduct(ctx context.Context, db *sqlite.DB, id int64, in ProductInput) (models.Product, error) {
	if err := checkInput(&in); err != nil {
		return models.Product{}, err
	}
	p := models.Product{ID: id}
	in.apply(&p)
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(&p).WherePK().Exec(ctx)
		if err != nil {
			return apperr.Storage(fmt.Errorf("update product %d: %w", id, err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("product %d", id)
		}
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes a product. Past sales keep their line snapshots.
func DeleteProduct(ctx context.Context, db *sqlite.DB, id int64) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Product)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return apperr.Storage(fmt.Errorf("delete product %d: %w", id, err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("product %d", id)
		}
		return nil
	})
}

func GetProduct(ctx context.Context, db *sqlite.DB, id int64) (models.Product, error) {
	var p models.Product
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&p).Where("id = ?", id).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, apperr.NotFound("product %d", id)
	}
	if err != nil {
		return models.Product{}, apperr.Storage(fmt.Errorf("load product %d: %w", id, err))
	}
	return p, nil
}

// ListProducts returns products ordered by name. search matches a substring
// of the name, case-insensitively.
func ListProducts(ctx context.Context, db *sqlite.DB, search string) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&products)
		if s := strings.TrimSpace(search); s != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		return q.OrderExpr("name ASC, id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list products: %w", err))
	}
	return products, nil
}

// LowStock is the threshold below which the dashboard flags a product.
const LowStock = 5

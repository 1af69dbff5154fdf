// Package ledger applies stock movements. Every function takes a bun.Tx so a
// movement can only happen as part of the caller's atomic unit.
package ledger

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/models"
)

// AdjustStockTx sets stock = stock - delta. A positive delta consumes stock,
// a negative one restores it. Stock may go negative.
func AdjustStockTx(ctx context.Context, tx bun.Tx, productID, delta int64) error {
	res, err := tx.NewUpdate().
		Model((*models.Product)(nil)).
		Set("stock = stock - ?", delta).
		Where("id = ?", productID).
		Exec(ctx)
	if err != nil {
		return apperr.Storage(fmt.Errorf("adjust stock of product %d: %w", productID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(fmt.Errorf("adjust stock of product %d: %w", productID, err))
	}
	if n == 0 {
		return apperr.NotFound("product %d", productID)
	}
	return nil
}

// RestoreStockTx puts qty units back. A product that has since been deleted
// is skipped and reported as restored=false.
func RestoreStockTx(ctx context.Context, tx bun.Tx, productID, qty int64) (restored bool, err error) {
	res, err := tx.NewUpdate().
		Model((*models.Product)(nil)).
		Set("stock = stock + ?", qty).
		Where("id = ?", productID).
		Exec(ctx)
	if err != nil {
		return false, apperr.Storage(fmt.Errorf("restore stock of product %d: %w", productID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage(fmt.Errorf("restore stock of product %d: %w", productID, err))
	}
	return n > 0, nil
}

// ConsumeLinesTx takes every line's qty out of stock.
func ConsumeLinesTx(ctx context.Context, tx bun.Tx, items []models.LineItem) error {
	for _, item := range items {
		if err := AdjustStockTx(ctx, tx, item.ProductID, item.Qty); err != nil {
			return err
		}
	}
	return nil
}

// RestoreLinesTx puts every line's qty back and returns the product ids that
// no longer exist.
func RestoreLinesTx(ctx context.Context, tx bun.Tx, items []models.LineItem) ([]int64, error) {
	var missing []int64
	for _, item := range items {
		ok, err := RestoreStockTx(ctx, tx, item.ProductID, item.Qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, item.ProductID)
		}
	}
	return missing, nil
}

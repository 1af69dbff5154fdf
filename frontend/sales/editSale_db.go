package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// ErrEditIncomplete means the old sale of an edit was removed but its
// replacement was not saved. The edit stays pending until RecoverPendingEdits
// completes it.
var ErrEditIncomplete = errors.New("sale edit incomplete")

// EditSale replaces sale id with a sale built from cart, keeping the original
// invoice number.
//
// It runs as two transactions. The first prices the replacement against the
// stored products, deletes the old sale, restores its stock and records a
// pending sale_edits row holding both sales. A cart naming a missing product
// aborts there with nothing changed. The second saves the replacement and
// marks the row done. A failure between the two leaves the pending row for
// RecoverPendingEdits or AbandonEdit.
func EditSale(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, id int64, cart Cart, in CheckoutInput) (models.Sale, error) {
	if err := validateCheckout(cart, in); err != nil {
		return models.Sale{}, err
	}
	in.CustomInvoice = ""

	var edit models.SaleEdit
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		priced, err := priceCartTx(ctx, tx, cart)
		if err != nil {
			return err
		}
		old, err := deleteSaleTx(ctx, tx, id)
		if err != nil {
			return err
		}
		edit = models.SaleEdit{
			ID:          uuid.NewString(),
			OldSaleID:   old.ID,
			InvoiceNo:   old.InvoiceNo,
			Original:    old,
			Replacement: BuildSale(priced, in, old.InvoiceNo, alloc.Clock()),
			Status:      models.SaleEditPending,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(&edit).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("record sale edit: %w", err))
		}
		return nil
	})
	if err != nil {
		return models.Sale{}, fmt.Errorf("edit sale %d: %w", id, err)
	}

	sale, err := completeEdit(ctx, db, edit.ID)
	if err != nil {
		slog.Error("sales: edit left pending",
			slog.String("edit_id", edit.ID), slog.String("invoice_no", edit.InvoiceNo), slog.Any("err", err))
		return models.Sale{}, fmt.Errorf("%w: edit %s of %s: %w", ErrEditIncomplete, edit.ID, edit.InvoiceNo, err)
	}
	return sale, nil
}

func loadEditTx(ctx context.Context, tx bun.Tx, editID string) (models.SaleEdit, error) {
	var edit models.SaleEdit
	err := tx.NewSelect().Model(&edit).Where("id = ?", editID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SaleEdit{}, apperr.NotFound("sale edit %s", editID)
	}
	if err != nil {
		return models.SaleEdit{}, apperr.Storage(fmt.Errorf("load sale edit: %w", err))
	}
	return edit, nil
}

func markEditDoneTx(ctx context.Context, tx bun.Tx, editID string, saleID int64) error {
	_, err := tx.NewUpdate().
		Model((*models.SaleEdit)(nil)).
		Set("status = ?", models.SaleEditDone).
		Set("new_sale_id = ?", saleID).
		Set("completed_at = ?", time.Now().UTC()).
		Where("id = ?", editID).
		Exec(ctx)
	if err != nil {
		return apperr.Storage(fmt.Errorf("mark sale edit done: %w", err))
	}
	return nil
}

func completeEdit(ctx context.Context, db *sqlite.DB, editID string) (models.Sale, error) {
	var sale models.Sale
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		edit, err := loadEditTx(ctx, tx, editID)
		if err != nil {
			return err
		}
		if edit.Status != models.SaleEditPending {
			if edit.NewSaleID != nil {
				sale, err = loadSale(ctx, tx, *edit.NewSaleID)
				return err
			}
			return nil
		}

		sale = edit.Replacement
		if err := createSaleTx(ctx, tx, &sale); err != nil {
			return err
		}
		return markEditDoneTx(ctx, tx, editID, sale.ID)
	})
	return sale, err
}

// AbandonEdit gives up on a pending edit: the original sale is saved again
// under its invoice number, its quantities are taken back out of stock and
// the edit is closed.
func AbandonEdit(ctx context.Context, db *sqlite.DB, editID string) (models.Sale, error) {
	var sale models.Sale
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		edit, err := loadEditTx(ctx, tx, editID)
		if err != nil {
			return err
		}
		if edit.Status != models.SaleEditPending {
			return fmt.Errorf("%w: sale edit %s is already %s", apperr.ErrConflict, editID, edit.Status)
		}
		if edit.Original.InvoiceNo == "" || len(edit.Original.Items) == 0 {
			return apperr.Validation("sale edit %s has no stored original to restore", editID)
		}
		sale = edit.Original
		if err := createSaleTx(ctx, tx, &sale); err != nil {
			return err
		}
		return markEditDoneTx(ctx, tx, editID, sale.ID)
	})
	if err != nil {
		return models.Sale{}, fmt.Errorf("abandon edit %s: %w", editID, err)
	}
	slog.Warn("sales: pending edit abandoned", slog.String("edit_id", editID), slog.String("invoice_no", sale.InvoiceNo))
	return sale, nil
}

// PendingEdits lists edits whose replacement sale was never saved.
func PendingEdits(ctx context.Context, db *sqlite.DB) ([]models.SaleEdit, error) {
	edits := make([]models.SaleEdit, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&edits).Where("status = ?", models.SaleEditPending).OrderExpr("created_at ASC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list pending edits: %w", err))
	}
	return edits, nil
}

// RecoverPendingEdits saves the replacement of every pending edit. It returns
// the number completed; an edit that fails again stays pending.
func RecoverPendingEdits(ctx context.Context, db *sqlite.DB) (int, error) {
	edits, err := PendingEdits(ctx, db)
	if err != nil {
		return 0, err
	}
	var errs []error
	completed := 0
	for _, edit := range edits {
		sale, err := completeEdit(ctx, db, edit.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("edit %s (%s): %w", edit.ID, edit.InvoiceNo, err))
			continue
		}
		completed++
		slog.Info("sales: recovered pending edit", slog.String("edit_id", edit.ID), slog.String("invoice_no", sale.InvoiceNo))
	}
	return completed, errors.Join(errs...)
}

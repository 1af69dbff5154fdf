package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/ledger"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

// CreateSale persists sale, takes its quantities out of stock and moves the
// invoice counter up to its number, all in one transaction.
func CreateSale(ctx context.Context, db *sqlite.DB, sale *models.Sale) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return createSaleTx(ctx, tx, sale)
	})
}

func createSaleTx(ctx context.Context, tx bun.Tx, sale *models.Sale) error {
	if len(sale.Items) == 0 {
		return apperr.Validation("sale has no items")
	}
	sale.ID = 0
	if _, err := tx.NewInsert().Model(sale).Exec(ctx); err != nil {
		return apperr.Storage(fmt.Errorf("insert sale %s: %w", sale.InvoiceNo, err))
	}
	if err := ledger.ConsumeLinesTx(ctx, tx, sale.Items); err != nil {
		return fmt.Errorf("sale %s: %w", sale.InvoiceNo, err)
	}
	return sequence.AdvanceTx(ctx, tx, sequence.KindInvoice, sale.InvoiceNo)
}

// Checkout numbers and saves a cart. An empty CustomInvoice allocates the
// next invoice number inside the same transaction that saves the sale.
func Checkout(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, cart Cart, in CheckoutInput) (models.Sale, error) {
	if err := validateCheckout(cart, in); err != nil {
		return models.Sale{}, err
	}
	now := alloc.Clock()
	date := ResolveDate(in.Date, now)

	custom := ""
	if in.CustomInvoice != "" {
		var err error
		custom, err = sequence.CustomInvoiceNumber(date.Year(), in.CustomInvoice)
		if err != nil {
			return models.Sale{}, err
		}
	}

	var sale models.Sale
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		number := custom
		if number == "" {
			var err error
			number, err = sequence.NextTx(ctx, tx, sequence.KindInvoice, now.Year())
			if err != nil {
				return err
			}
		} else {
			warnDuplicateInvoice(ctx, tx, number)
		}

		priced, err := priceCartTx(ctx, tx, cart)
		if err != nil {
			return err
		}
		sale = BuildSale(priced, in, number, now)
		return createSaleTx(ctx, tx, &sale)
	})
	if err != nil {
		return models.Sale{}, fmt.Errorf("checkout: %w", err)
	}
	return sale, nil
}

// priceCartTx returns cart with every line's name and prices taken from the
// stored product. A line naming a missing product fails with ErrNotFound.
func priceCartTx(ctx context.Context, tx bun.IDB, cart Cart) (Cart, error) {
	ids := make([]int64, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	var products []models.Product
	if err := tx.NewSelect().Model(&products).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return Cart{}, apperr.Storage(fmt.Errorf("load cart products: %w", err))
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := Cart{PriceType: cart.PriceType, Lines: make([]CartLine, 0, len(cart.Lines))}
	for _, l := range cart.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return Cart{}, apperr.NotFound("product %d", l.ProductID)
		}
		if l.RetailPrice != p.RetailPrice || l.WholesalePrice != p.WholesalePrice || l.CostPrice != p.CostPrice {
			slog.Debug("sales: cart line repriced", slog.Int64("product_id", p.ID))
		}
		out.Lines = append(out.Lines, LineFromProduct(p, l.Qty))
	}
	return out, nil
}

func validateCheckout(cart Cart, in CheckoutInput) error {
	if cart.Empty() {
		return apperr.Validation("cart is empty")
	}
	if cart.PriceType != "" && !cart.PriceType.Valid() {
		return apperr.Validation("unknown price type %q", cart.PriceType)
	}
	if err := validate.Struct(cart); err != nil {
		return err
	}
	return validate.Struct(in)
}

// Custom numbers may repeat an existing invoice; that is allowed but logged.
func warnDuplicateInvoice(ctx context.Context, tx bun.Tx, number string) {
	n, err := tx.NewSelect().Model((*models.Sale)(nil)).Where("invoice_no = ?", number).Count(ctx)
	if err != nil {
		slog.Warn("sales: duplicate invoice check failed", slog.String("invoice_no", number), slog.Any("err", err))
		return
	}
	if n > 0 {
		slog.Warn("sales: custom invoice number already used", slog.String("invoice_no", number), slog.Int("existing", n))
	}
}

// DeleteSale removes a sale and puts its quantities back in stock. Lines
// whose product has since been deleted are skipped.
func DeleteSale(ctx context.Context, db *sqlite.DB, id int64) (models.Sale, error) {
	var sale models.Sale
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		sale, err = deleteSaleTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Sale{}, fmt.Errorf("delete sale %d: %w", id, err)
	}
	return sale, nil
}

func deleteSaleTx(ctx context.Context, tx bun.Tx, id int64) (models.Sale, error) {
	sale, err := loadSale(ctx, tx, id)
	if err != nil {
		return models.Sale{}, err
	}
	missing, err := ledger.RestoreLinesTx(ctx, tx, sale.Items)
	if err != nil {
		return models.Sale{}, err
	}
	if len(missing) > 0 {
		slog.Warn("sales: stock not restored for deleted products",
			slog.String("invoice_no", sale.InvoiceNo), slog.Any("product_ids", missing))
	}
	if _, err := tx.NewDelete().Model((*models.Sale)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return models.Sale{}, apperr.Storage(fmt.Errorf("delete sale row: %w", err))
	}
	return sale, nil
}

func loadSale(ctx context.Context, tx bun.IDB, id int64) (models.Sale, error) {
	var sale models.Sale
	err := tx.NewSelect().Model(&sale).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, apperr.NotFound("sale %d", id)
	}
	if err != nil {
		return models.Sale{}, apperr.Storage(fmt.Errorf("load sale %d: %w", id, err))
	}
	return sale, nil
}

// GetSale loads one sale.
func GetSale(ctx context.Context, db *sqlite.DB, id int64) (models.Sale, error) {
	var sale models.Sale
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		sale, err = loadSale(ctx, tx, id)
		return err
	})
	return sale, err
}

// GetSaleByInvoice loads the most recent sale carrying invoiceNo.
func GetSaleByInvoice(ctx context.Context, db *sqlite.DB, invoiceNo string) (models.Sale, error) {
	var sale models.Sale
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&sale).Where("invoice_no = ?", invoiceNo).OrderExpr("id DESC").Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, apperr.NotFound("invoice %s", invoiceNo)
	}
	if err != nil {
		return models.Sale{}, apperr.Storage(fmt.Errorf("load invoice %s: %w", invoiceNo, err))
	}
	return sale, nil
}

// ListSales returns every sale, newest first.
func ListSales(ctx context.Context, db *sqlite.DB) ([]models.Sale, error) {
	return ListSalesByDate(ctx, db, DateRange{})
}

// ListSalesByDate returns sales within r, newest first. Zero bounds are open.
func ListSalesByDate(ctx context.Context, db *sqlite.DB, r DateRange) ([]models.Sale, error) {
	sales := make([]models.Sale, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&sales)
		if !r.From.IsZero() {
			q = q.Where("date >= ?", r.From.UTC())
		}
		if !r.To.IsZero() {
			q = q.Where("date < ?", r.To.UTC())
		}
		return q.OrderExpr("id DESC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list sales: %w", err))
	}
	return sales, nil
}

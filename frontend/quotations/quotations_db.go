package quotations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"miragepos/frontend/sales"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

// WalkInCustomer is the name used when a quotation is saved without one.
const WalkInCustomer = "Walk-in Customer"

// NextQuotationNumber previews the number the next saved quotation gets.
func NextQuotationNumber(ctx context.Context, alloc *sequence.Allocator) (string, error) {
	return alloc.Next(ctx, sequence.KindQuotation)
}

// BuildQuotation prices cart into a quotation numbered number. Quotations
// carry no cost snapshot.
func BuildQuotation(cart sales.Cart, in sales.CheckoutInput, number string, now time.Time) models.Quotation {
	sale := sales.BuildSale(cart, in, number, now)
	items := make([]models.LineItem, len(sale.Items))
	for i, item := range sale.Items {
		item.CostPrice = 0
		items[i] = item
	}
	name := in.CustomerName
	if name == "" {
		name = WalkInCustomer
	}
	return models.Quotation{
		QuotationNo:     number,
		Date:            sale.Date,
		CustomerType:    sale.CustomerType,
		CustomerName:    name,
		CustomerAddress: sale.CustomerAddress,
		Items:           items,
		TotalAmount:     sale.TotalAmount,
		DeliveryCharge:  sale.DeliveryCharge,
		DiscountType:    sale.DiscountType,
		DiscountValue:   sale.DiscountValue,
		DiscountAmount:  sale.DiscountAmount,
	}
}

func validateCart(cart sales.Cart, in sales.CheckoutInput) error {
	if cart.Empty() {
		return apperr.Validation("cart is empty")
	}
	if err := validate.Struct(cart); err != nil {
		return err
	}
	return validate.Struct(in)
}

// CreateQuotation numbers and saves a quotation and confirms its number in
// the same transaction. Stock is not touched.
func CreateQuotation(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, cart sales.Cart, in sales.CheckoutInput) (models.Quotation, error) {
	if err := validateCart(cart, in); err != nil {
		return models.Quotation{}, err
	}
	now := alloc.Clock()

	var q models.Quotation
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		number, err := sequence.NextTx(ctx, tx, sequence.KindQuotation, now.Year())
		if err != nil {
			return err
		}
		q = BuildQuotation(cart, in, number, now)
		if _, err := tx.NewInsert().Model(&q).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("insert quotation: %w", err))
		}
		return sequence.IncrementTx(ctx, tx, sequence.KindQuotation)
	})
	if err != nil {
		return models.Quotation{}, fmt.Errorf("create quotation: %w", err)
	}
	return q, nil
}

// UpdateQuotation reprices quotation id from cart. The number is kept and
// the counter is not touched.
func UpdateQuotation(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, id int64, cart sales.Cart, in sales.CheckoutInput) (models.Quotation, error) {
	if err := validateCart(cart, in); err != nil {
		return models.Quotation{}, err
	}

	var q models.Quotation
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, err := loadQuotation(ctx, tx, id)
		if err != nil {
			return err
		}
		q = BuildQuotation(cart, in, existing.QuotationNo, alloc.Clock())
		q.ID = existing.ID
		if in.Date.IsZero() {
			q.Date = existing.Date
		}
		if _, err := tx.NewUpdate().Model(&q).WherePK().Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("update quotation: %w", err))
		}
		return nil
	})
	if err != nil {
		return models.Quotation{}, fmt.Errorf("update quotation %d: %w", id, err)
	}
	return q, nil
}

// DeleteQuotation removes a quotation.
func DeleteQuotation(ctx context.Context, db *sqlite.DB, id int64) error {
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return deleteQuotationTx(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("delete quotation %d: %w", id, err)
	}
	return nil
}

func deleteQuotationTx(ctx context.Context, tx bun.Tx, id int64) error {
	res, err := tx.NewDelete().Model((*models.Quotation)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return apperr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if n == 0 {
		return apperr.NotFound("quotation %d", id)
	}
	return nil
}

func loadQuotation(ctx context.Context, tx bun.IDB, id int64) (models.Quotation, error) {
	var q models.Quotation
	err := tx.NewSelect().Model(&q).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Quotation{}, apperr.NotFound("quotation %d", id)
	}
	if err != nil {
		return models.Quotation{}, apperr.Storage(fmt.Errorf("load quotation %d: %w", id, err))
	}
	return q, nil
}

// GetQuotation loads one quotation.
func GetQuotation(ctx context.Context, db *sqlite.DB, id int64) (models.Quotation, error) {
	var q models.Quotation
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		q, err = loadQuotation(ctx, tx, id)
		return err
	})
	return q, err
}

// ListQuotations returns every quotation, newest first.
func ListQuotations(ctx context.Context, db *sqlite.DB) ([]models.Quotation, error) {
	list := make([]models.Quotation, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&list).OrderExpr("id DESC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list quotations: %w", err))
	}
	return list, nil
}

// LoadCart rebuilds a cart from q using each product's current prices.
// Lines whose product no longer exists are dropped and their ids returned.
func LoadCart(ctx context.Context, db *sqlite.DB, q models.Quotation) (sales.Cart, []int64, error) {
	cart := sales.Cart{PriceType: sales.PriceType(q.CustomerType)}
	if !cart.PriceType.Valid() {
		cart.PriceType = sales.PriceRetail
	}
	var missing []int64
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, item := range q.Items {
			var p models.Product
			err := tx.NewSelect().Model(&p).Where("id = ?", item.ProductID).Scan(ctx)
			if errors.Is(err, sql.ErrNoRows) {
				missing = append(missing, item.ProductID)
				continue
			}
			if err != nil {
				return apperr.Storage(fmt.Errorf("load product %d: %w", item.ProductID, err))
			}
			cart.Add(p, item.Qty)
		}
		return nil
	})
	if err != nil {
		return sales.Cart{}, nil, err
	}
	return cart, missing, nil
}

// ConvertToSale checks out quotation id as a sale at current product prices.
// Empty customer and discount fields of in are taken from the quotation. With
// deleteOriginal the quotation is removed once the sale is saved.
func ConvertToSale(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, id int64, in sales.CheckoutInput, deleteOriginal bool) (models.Sale, error) {
	q, err := GetQuotation(ctx, db, id)
	if err != nil {
		return models.Sale{}, err
	}
	cart, missing, err := LoadCart(ctx, db, q)
	if err != nil {
		return models.Sale{}, err
	}
	if len(missing) > 0 {
		slog.Warn("quotations: skipped lines of deleted products",
			slog.String("quotation_no", q.QuotationNo), slog.Any("product_ids", missing))
	}
	if cart.Empty() {
		return models.Sale{}, apperr.Validation("quotation %s references no existing products", q.QuotationNo)
	}

	if in.CustomerName == "" && q.CustomerName != WalkInCustomer {
		in.CustomerName = q.CustomerName
	}
	if in.CustomerAddress == "" {
		in.CustomerAddress = q.CustomerAddress
	}
	if in.DiscountType == "" {
		in.DiscountType = sales.DiscountType(q.DiscountType)
		in.DiscountValue = q.DiscountValue
		if in.DeliveryCharge == 0 {
			in.DeliveryCharge = q.DeliveryCharge
		}
	}

	sale, err := sales.Checkout(ctx, db, alloc, cart, in)
	if err != nil {
		return models.Sale{}, fmt.Errorf("convert quotation %s: %w", q.QuotationNo, err)
	}
	if deleteOriginal {
		if err := DeleteQuotation(ctx, db, id); err != nil {
			return sale, err
		}
	}
	slog.Info("quotations: converted", slog.String("quotation_no", q.QuotationNo),
		slog.String("invoice_no", sale.InvoiceNo), slog.String("total", money.Format(sale.TotalAmount)))
	return sale, nil
}

package quotations

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"miragepos/frontend/sales"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

func openQuotationsTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "quotations-test.db")
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

func testAllocator(db *sqlite.DB) *sequence.Allocator {
	return &sequence.Allocator{DB: db, Now: func() time.Time {
		return time.Date(2024, 7, 1, 11, 0, 0, 0, time.UTC)
	}}
}

func seedProduct(t *testing.T, db *sqlite.DB, name string, cost, retail float64, stock int64) models.Product {
	t.Helper()
	p := models.Product{Name: name, CostPrice: cost, RetailPrice: retail, WholesalePrice: retail, Stock: stock}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&p).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func setRetailPrice(t *testing.T, db *sqlite.DB, id int64, price float64) {
	t.Helper()
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE products SET retail_price = ? WHERE id = ?`, price, id)
		return err
	})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
}

func stockOf(t *testing.T, db *sqlite.DB, id int64) int64 {
	t.Helper()
	var stock int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT stock FROM products WHERE id = ?`, id).Scan(ctx, &stock)
	})
	if err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return stock
}

func retailCart(lines ...sales.CartLine) sales.Cart {
	return sales.Cart{PriceType: sales.PriceRetail, Lines: lines}
}

func TestCreateQuotationNumbersAndLeavesStock(t *testing.T) {
	db := openQuotationsTestDB(t)
	alloc := testAllocator(db)
	p := seedProduct(t, db, "Brass Lamp", 500, 1000, 5)

	preview, err := NextQuotationNumber(context.Background(), alloc)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q, err := CreateQuotation(context.Background(), db, alloc, retailCart(sales.LineFromProduct(p, 2)), sales.CheckoutInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.QuotationNo != preview || q.QuotationNo != "QTN-2024-0001" {
		t.Fatalf("unexpected number %q (preview %q)", q.QuotationNo, preview)
	}
	if q.CustomerName != WalkInCustomer {
		t.Fatalf("expected walk-in default, got %q", q.CustomerName)
	}
	if q.TotalAmount != 2000 {
		t.Fatalf("unexpected total %v", q.TotalAmount)
	}
	if got := stockOf(t, db, p.ID); got != 5 {
		t.Fatalf("quotation must not touch stock, got %d", got)
	}

	second, err := CreateQuotation(context.Background(), db, alloc, retailCart(sales.LineFromProduct(p, 1)), sales.CheckoutInput{CustomerName: "Kamal"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.QuotationNo != "QTN-2024-0002" {
		t.Fatalf("unexpected number %q", second.QuotationNo)
	}
}

func TestUpdateQuotationKeepsNumber(t *testing.T) {
	db := openQuotationsTestDB(t)
	alloc := testAllocator(db)
	p := seedProduct(t, db, "Brass Lamp", 500, 1000, 5)

	q, err := CreateQuotation(context.Background(), db, alloc, retailCart(sales.LineFromProduct(p, 1)), sales.CheckoutInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := UpdateQuotation(context.Background(), db, alloc, q.ID, retailCart(sales.LineFromProduct(p, 3)), sales.CheckoutInput{DeliveryCharge: 100})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.QuotationNo != q.QuotationNo || updated.TotalAmount != 3100 {
		t.Fatalf("unexpected update %+v", updated)
	}
	next, err := NextQuotationNumber(context.Background(), alloc)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != "QTN-2024-0002" {
		t.Fatalf("update must not advance counter, next=%q", next)
	}

	if _, err := UpdateQuotation(context.Background(), db, alloc, 999, retailCart(sales.LineFromProduct(p, 1)), sales.CheckoutInput{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteQuotation(t *testing.T) {
	db := openQuotationsTestDB(t)
	alloc := testAllocator(db)
	p := seedProduct(t, db, "Brass Lamp", 500, 1000, 5)

	q, err := CreateQuotation(context.Background(), db, alloc, retailCart(sales.LineFromProduct(p, 1)), sales.CheckoutInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := DeleteQuotation(context.Background(), db, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteQuotation(context.Background(), db, q.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateQuotationRejectsEmptyCart(t *testing.T) {
	db := openQuotationsTestDB(t)
	_, err := CreateQuotation(context.Background(), db, testAllocator(db), retailCart(), sales.CheckoutInput{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConvertToSaleUsesCurrentPrice(t *testing.T) {
	db := openQuotationsTestDB(t)
	alloc := testAllocator(db)
	p := seedProduct(t, db, "Brass Lamp", 500, 1000, 5)
	gone := seedProduct(t, db, "Discontinued", 10, 20, 5)

	q, err := CreateQuotation(context.Background(), db, alloc,
		retailCart(sales.LineFromProduct(p, 2), sales.LineFromProduct(gone, 1)),
		sales.CheckoutInput{CustomerName: "Sunil", DeliveryCharge: 50})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	setRetailPrice(t, db, p.ID, 1200)
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, gone.ID)
		return err
	})
	if err != nil {
		t.Fatalf("delete product: %v", err)
	}

	sale, err := ConvertToSale(context.Background(), db, alloc, q.ID, sales.CheckoutInput{}, true)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if sale.Items[0].UnitPrice != 1200 {
		t.Fatalf("expected current price 1200, got %v", sale.Items[0].UnitPrice)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected deleted product skipped, got %d items", len(sale.Items))
	}
	if sale.TotalAmount != 2450 || sale.CustomerName != "Sunil" {
		t.Fatalf("unexpected sale %+v", sale)
	}
	if sale.InvoiceNo != "INV-2024-0001" {
		t.Fatalf("unexpected invoice %q", sale.InvoiceNo)
	}
	if got := stockOf(t, db, p.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	if _, err := GetQuotation(context.Background(), db, q.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected quotation removed, got %v", err)
	}
}

func TestConvertToSaleKeepsQuotationByDefault(t *testing.T) {
	db := openQuotationsTestDB(t)
	alloc := testAllocator(db)
	p := seedProduct(t, db, "Brass Lamp", 500, 1000, 5)

	q, err := CreateQuotation(context.Background(), db, alloc, retailCart(sales.LineFromProduct(p, 1)), sales.CheckoutInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ConvertToSale(context.Background(), db, alloc, q.ID, sales.CheckoutInput{}, false); err != nil {
		t.Fatalf("convert: %v", err)
	}
	list, err := ListQuotations(context.Background(), db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected quotation kept, got %d", len(list))
	}
}

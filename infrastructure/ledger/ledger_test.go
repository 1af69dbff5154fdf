package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

func openLedgerTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "ledger-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *sqlite.DB, name string, stock int64) int64 {
	t.Helper()
	p := &models.Product{Name: name, Stock: stock, CostPrice: 10, RetailPrice: 15, WholesalePrice: 12}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(p).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p.ID
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

func TestAdjustStockAllowsNegative(t *testing.T) {
	db := openLedgerTestDB(t)
	id := seedProduct(t, db, "Brass Lamp", 2)

	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return AdjustStockTx(ctx, tx, id, 5)
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := stockOf(t, db, id); got != -3 {
		t.Fatalf("expected -3, got %d", got)
	}
}

func TestAdjustStockMissingProduct(t *testing.T) {
	db := openLedgerTestDB(t)
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return AdjustStockTx(ctx, tx, 999, 1)
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConsumeLinesRollsBackAsUnit(t *testing.T) {
	db := openLedgerTestDB(t)
	id := seedProduct(t, db, "Clay Pot", 10)

	items := []models.LineItem{{ProductID: id, Qty: 3}, {ProductID: 424242, Qty: 1}}
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return ConsumeLinesTx(ctx, tx, items)
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := stockOf(t, db, id); got != 10 {
		t.Fatalf("expected first line rolled back, stock=%d", got)
	}
}

func TestRestoreLinesSkipsMissingProducts(t *testing.T) {
	db := openLedgerTestDB(t)
	id := seedProduct(t, db, "Wooden Mask", 1)

	var missing []int64
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		missing, err = RestoreLinesTx(ctx, tx, []models.LineItem{{ProductID: id, Qty: 4}, {ProductID: 77, Qty: 2}})
		return err
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := stockOf(t, db, id); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if len(missing) != 1 || missing[0] != 77 {
		t.Fatalf("unexpected missing %v", missing)
	}
}

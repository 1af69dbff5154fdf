package backup

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sqlite"
)

func WriteProductsCSV(ctx context.Context, db *sqlite.DB, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"id", "name", "category", "vendor", "cost_price", "retail_price", "wholesale_price", "stock"}
	if err := writer.Write(header); err != nil {
		return err
	}

	type row struct {
		ID             int64   `bun:"id"`
		Name           string  `bun:"name"`
		Category       string  `bun:"category"`
		Vendor         string  `bun:"vendor"`
		CostPrice      float64 `bun:"cost_price"`
		RetailPrice    float64 `bun:"retail_price"`
		WholesalePrice float64 `bun:"wholesale_price"`
		Stock          int64   `bun:"stock"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT id, name, category, vendor, cost_price, retail_price, wholesale_price, stock
FROM products
ORDER BY name ASC, id ASC`).Scan(ctx, &rows)
	})
	if err != nil {
		return apperr.Storage(err)
	}

	for _, r := range rows {
		record := []string{
			toString(r.ID), r.Name, r.Category, r.Vendor,
			amount(r.CostPrice), amount(r.RetailPrice), amount(r.WholesalePrice),
			toString(r.Stock),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

// WriteSalesCSV writes one row per sale with the item count, newest first.
func WriteSalesCSV(ctx context.Context, db *sqlite.DB, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"invoice_no", "date", "customer_type", "customer_name", "items", "discount", "delivery", "total", "profit"}); err != nil {
		return err
	}

	type row struct {
		InvoiceNo      string  `bun:"invoice_no"`
		Date           string  `bun:"date"`
		CustomerType   string  `bun:"customer_type"`
		CustomerName   string  `bun:"customer_name"`
		ItemCount      int64   `bun:"item_count"`
		DiscountAmount float64 `bun:"discount_amount"`
		DeliveryCharge float64 `bun:"delivery_charge"`
		TotalAmount    float64 `bun:"total_amount"`
		Profit         float64 `bun:"profit"`
	}

	rows := make([]row, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT invoice_no,
       strftime('%d/%m/%Y %H:%M', date) AS date,
       customer_type,
       COALESCE(customer_name, '') AS customer_name,
       json_array_length(items) AS item_count,
       discount_amount, delivery_charge, total_amount, profit
FROM sales
ORDER BY id DESC`).Scan(ctx, &rows)
	})
	if err != nil {
		return apperr.Storage(err)
	}

	for _, r := range rows {
		record := []string{
			r.InvoiceNo, r.Date, r.CustomerType, r.CustomerName, toString(r.ItemCount),
			amount(r.DiscountAmount), amount(r.DeliveryCharge), amount(r.TotalAmount), amount(r.Profit),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func toString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func amount(v float64) string {
	return money.D(v).StringFixed(2)
}

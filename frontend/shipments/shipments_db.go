package shipments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/infrastructure/validate"
	"miragepos/models"
)

// PlanShipment spreads the shipping cost evenly over every unit and derives
// each line's landed cost: round2(baseCost*rate + shippingPerUnit). Every
// named line becomes a new product; wholesale defaults to retail.
func PlanShipment(in Intake) (Plan, error) {
	if err := validate.Struct(in); err != nil {
		return Plan{}, err
	}
	rate := in.ExchangeRate
	if rate <= 0 {
		rate = 1
	}

	var totalQty int64
	named := make([]Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		if l.Qty <= 0 {
			l.Qty = 1
		}
		totalQty += l.Qty
		named = append(named, l)
	}
	if totalQty == 0 {
		return Plan{}, ErrNoItems
	}

	perUnit := decimal.Zero
	if in.ShippingCost > 0 {
		perUnit = money.D(in.ShippingCost).Div(decimal.NewFromInt(totalQty))
	}

	products := make([]models.Product, 0, len(named))
	for _, l := range named {
		landed := money.D(l.BaseCost).Mul(money.D(rate)).Add(perUnit).Round(2)
		products = append(products, models.Product{
			Name:           l.Name,
			Category:       strings.TrimSpace(l.Category),
			Vendor:         in.Vendor,
			CostPrice:      money.Float(landed),
			RetailPrice:    l.RetailPrice,
			WholesalePrice: l.RetailPrice,
			Stock:          l.Qty,
		})
	}

	return Plan{
		TotalQty:        totalQty,
		ShippingPerUnit: money.Float(perUnit),
		ExchangeRate:    rate,
		Products:        products,
	}, nil
}

// CommitShipment numbers the shipment, records it, adds its products and
// advances the shipment counter in one transaction. Products are never merged
// with existing ones of the same name.
func CommitShipment(ctx context.Context, db *sqlite.DB, alloc *sequence.Allocator, in Intake) (models.Shipment, []models.Product, error) {
	plan, err := PlanShipment(in)
	if err != nil {
		return models.Shipment{}, nil, err
	}
	now := alloc.Clock()

	shipment := models.Shipment{
		Date:         now.UTC(),
		Vendor:       in.Vendor,
		TotalCost:    in.ShippingCost,
		ShippingCost: in.ShippingCost,
		ExchangeRate: plan.ExchangeRate,
		ItemCount:    plan.TotalQty,
		ProductCount: int64(len(plan.Products)),
		Status:       StatusCompleted,
	}
	products := plan.Products

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		number, err := sequence.NextTx(ctx, tx, sequence.KindShipment, now.Year())
		if err != nil {
			return err
		}
		shipment.ShipmentID = number

		if _, err := tx.NewInsert().Model(&shipment).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("insert shipment: %w", err))
		}
		if _, err := tx.NewInsert().Model(&products).Exec(ctx); err != nil {
			return apperr.Storage(fmt.Errorf("insert shipment products: %w", err))
		}
		return sequence.AdvanceTx(ctx, tx, sequence.KindShipment, number)
	})
	if err != nil {
		return models.Shipment{}, nil, fmt.Errorf("commit shipment: %w", err)
	}
	return shipment, products, nil
}

// DeleteShipment removes the shipment record only. Products it created, and
// their stock, stay as they are.
func DeleteShipment(ctx context.Context, db *sqlite.DB, id int64) error {
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Shipment)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return apperr.Storage(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Storage(err)
		}
		if n == 0 {
			return apperr.NotFound("shipment %d", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete shipment %d: %w", id, err)
	}
	return nil
}

// GetShipment loads one shipment.
func GetShipment(ctx context.Context, db *sqlite.DB, id int64) (models.Shipment, error) {
	var s models.Shipment
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&s).Where("id = ?", id).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, apperr.NotFound("shipment %d", id)
	}
	if err != nil {
		return models.Shipment{}, apperr.Storage(fmt.Errorf("load shipment %d: %w", id, err))
	}
	return s, nil
}

// ListShipments returns shipments newest first, optionally filtered by a
// case-insensitive match on shipment id or vendor.
func ListShipments(ctx context.Context, db *sqlite.DB, search string) ([]models.Shipment, error) {
	list := make([]models.Shipment, 0)
	search = strings.ToLower(strings.TrimSpace(search))
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&list)
		if search != "" {
			like := "%" + search + "%"
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("LOWER(shipment_id) LIKE ?", like).WhereOr("LOWER(vendor) LIKE ?", like)
			})
		}
		return q.OrderExpr("id DESC").Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list shipments: %w", err))
	}
	return list, nil
}

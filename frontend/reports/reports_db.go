// Package reports derives the dashboard, profit and loss and item movement
// figures from the saved sales.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"miragepos/frontend/products"
	"miragepos/frontend/sales"
	"miragepos/infrastructure/money"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

func SummariseSales(list []models.Sale) ProfitAndLoss {
	revenue, profit, discount := decimal.Zero, decimal.Zero, decimal.Zero
	for _, s := range list {
		revenue = revenue.Add(money.D(s.TotalAmount))
		profit = profit.Add(money.D(s.Profit))
		discount = discount.Add(money.D(s.DiscountAmount))
	}
	return ProfitAndLoss{
		SalesCount: int64(len(list)),
		Revenue:    money.Float(revenue),
		Profit:     money.Float(profit),
		COGS:       money.Float(revenue.Sub(profit)),
		Discount:   money.Float(discount),
	}
}

// ProfitAndLossReport covers the sales within r.
func ProfitAndLossReport(ctx context.Context, db *sqlite.DB, r sales.DateRange) (ProfitAndLoss, error) {
	list, err := sales.ListSalesByDate(ctx, db, r)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return SummariseSales(list), nil
}

// ComputeMovement ranks products by quantity sold. Fast movers are the top
// sellers; dead stock is the in-stock products that sold least, unsold first.
func ComputeMovement(list []models.Sale, catalogue []models.Product) Movement {
	sold := make(map[int64]*ItemSales)
	revenue := make(map[int64]decimal.Decimal)
	for _, s := range list {
		for _, it := range s.Items {
			row, ok := sold[it.ProductID]
			if !ok {
				row = &ItemSales{ProductID: it.ProductID, Name: it.Name}
				sold[it.ProductID] = row
			}
			row.QtySold += it.Qty
			revenue[it.ProductID] = revenue[it.ProductID].Add(money.D(it.Total))
		}
	}

	fast := make([]ItemSales, 0, len(sold))
	for id, row := range sold {
		row.Revenue = money.Float(revenue[id])
		fast = append(fast, *row)
	}
	sort.SliceStable(fast, func(i, j int) bool {
		if fast[i].QtySold != fast[j].QtySold {
			return fast[i].QtySold > fast[j].QtySold
		}
		return fast[i].ProductID < fast[j].ProductID
	})

	dead := make([]ItemSales, 0)
	for _, p := range catalogue {
		if p.Stock <= 0 {
			continue
		}
		row := ItemSales{ProductID: p.ID, Name: p.Name, Stock: p.Stock}
		if s, ok := sold[p.ID]; ok {
			row.QtySold = s.QtySold
			row.Revenue = s.Revenue
		}
		dead = append(dead, row)
	}
	sort.SliceStable(dead, func(i, j int) bool { return dead[i].QtySold < dead[j].QtySold })

	return Movement{FastMoving: head(fast, TopN), DeadStock: head(dead, TopN)}
}

func head(rows []ItemSales, n int) []ItemSales {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func ItemMovement(ctx context.Context, db *sqlite.DB, r sales.DateRange) (Movement, error) {
	list, err := sales.ListSalesByDate(ctx, db, r)
	if err != nil {
		return Movement{}, err
	}
	catalogue, err := products.ListProducts(ctx, db, "")
	if err != nil {
		return Movement{}, err
	}
	return ComputeMovement(list, catalogue), nil
}

// DayRange is the local calendar day containing now.
func DayRange(now time.Time) sales.DateRange {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return sales.DateRange{From: start, To: start.AddDate(0, 0, 1)}
}

// Today builds the dashboard for the local day containing now.
func Today(ctx context.Context, db *sqlite.DB, now time.Time) (Dashboard, error) {
	today, err := sales.ListSalesByDate(ctx, db, DayRange(now))
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := sales.ListSales(ctx, db)
	if err != nil {
		return Dashboard{}, err
	}
	catalogue, err := products.ListProducts(ctx, db, "")
	if err != nil {
		return Dashboard{}, err
	}

	pl := SummariseSales(today)
	low := 0
	for _, p := range catalogue {
		if p.Stock < products.LowStock {
			low++
		}
	}
	if len(recent) > TopN {
		recent = recent[:TopN]
	}
	return Dashboard{
		TodaySales:    pl.SalesCount,
		TodayRevenue:  pl.Revenue,
		TodayProfit:   pl.Profit,
		TotalProducts: len(catalogue),
		LowStock:      low,
		RecentSales:   recent,
	}, nil
}

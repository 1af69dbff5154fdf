package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"miragepos/infrastructure/money"
	"miragepos/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives subtotal, discount, total and profit from the cart's
// price snapshots. The total is clamped at zero; profit is not.
func ComputeTotals(lines []CartLine, pt PriceType, delivery float64, dt DiscountType, discountValue float64) Totals {
	subtotal := decimal.Zero
	gross := decimal.Zero
	var count int64
	for _, l := range lines {
		price := money.D(l.Price(pt))
		qty := decimal.NewFromInt(l.Qty)
		subtotal = subtotal.Add(price.Mul(qty))
		gross = gross.Add(price.Sub(money.D(l.CostPrice)).Mul(qty))
		count += l.Qty
	}

	discount := money.D(discountValue)
	if dt == DiscountPercent {
		discount = subtotal.Mul(discount).Div(hundred)
	}

	total := subtotal.Add(money.D(delivery)).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       money.Float(subtotal),
		DiscountAmount: money.Float(discount),
		Total:          money.Float(total),
		Profit:         money.Float(gross.Sub(discount)),
		ItemCount:      count,
	}
}

// BuildSale turns a cart into a sale record numbered invoiceNo. Totals are
// always recomputed from the lines.
func BuildSale(cart Cart, in CheckoutInput, invoiceNo string, now time.Time) models.Sale {
	pt := cart.PriceType
	if !pt.Valid() {
		pt = PriceRetail
	}
	dt := in.DiscountType
	if dt == "" {
		dt = DiscountFixed
	}
	totals := ComputeTotals(cart.Lines, pt, in.DeliveryCharge, dt, in.DiscountValue)

	items := make([]models.LineItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		price := l.Price(pt)
		items = append(items, models.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Qty:       l.Qty,
			UnitPrice: price,
			CostPrice: l.CostPrice,
			Total:     money.Float(money.Mul(price, l.Qty)),
		})
	}

	return models.Sale{
		InvoiceNo:       invoiceNo,
		Date:            ResolveDate(in.Date, now).UTC(),
		CustomerType:    string(pt),
		CustomerName:    in.CustomerName,
		CustomerAddress: in.CustomerAddress,
		Items:           items,
		TotalAmount:     totals.Total,
		Profit:          totals.Profit,
		DeliveryCharge:  in.DeliveryCharge,
		DiscountType:    string(dt),
		DiscountValue:   in.DiscountValue,
		DiscountAmount:  totals.DiscountAmount,
	}
}

// ResolveDate returns now for a zero date. A date without a time of day
// takes the current clock time.
func ResolveDate(d, now time.Time) time.Time {
	if d.IsZero() {
		return now
	}
	h, m, s := d.Clock()
	if h == 0 && m == 0 && s == 0 && d.Nanosecond() == 0 {
		nh, nm, ns := now.Clock()
		return time.Date(d.Year(), d.Month(), d.Day(), nh, nm, ns, 0, d.Location())
	}
	return d
}

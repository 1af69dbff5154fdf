package sales

import (
	"testing"
	"time"

	"miragepos/models"
)

func TestComputeTotalsPercentDiscount(t *testing.T) {
	lines := []CartLine{
		{ProductID: 1, Qty: 2, CostPrice: 300, RetailPrice: 500, WholesalePrice: 400},
		{ProductID: 2, Qty: 1, CostPrice: 50, RetailPrice: 100, WholesalePrice: 80},
	}
	got := ComputeTotals(lines, PriceRetail, 250, DiscountPercent, 10)
	if got.Subtotal != 1100 {
		t.Fatalf("subtotal=%v", got.Subtotal)
	}
	if got.DiscountAmount != 110 {
		t.Fatalf("discount=%v", got.DiscountAmount)
	}
	if got.Total != 1240 {
		t.Fatalf("total=%v", got.Total)
	}
	// (500-300)*2 + (100-50) - 110
	if got.Profit != 340 {
		t.Fatalf("profit=%v", got.Profit)
	}
	if got.ItemCount != 3 {
		t.Fatalf("item count=%d", got.ItemCount)
	}
}

func TestComputeTotalsClampsTotalButNotProfit(t *testing.T) {
	lines := []CartLine{{ProductID: 1, Qty: 1, CostPrice: 80, RetailPrice: 100, WholesalePrice: 90}}
	got := ComputeTotals(lines, PriceWholesale, 0, DiscountFixed, 500)
	if got.Total != 0 {
		t.Fatalf("expected total clamped to 0, got %v", got.Total)
	}
	if got.Profit != -490 {
		t.Fatalf("expected negative profit -490, got %v", got.Profit)
	}
}

func TestBuildSaleSnapshotsLines(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cart := Cart{PriceType: PriceWholesale, Lines: []CartLine{{ProductID: 9, Name: "Mask", Qty: 3, CostPrice: 10, RetailPrice: 30, WholesalePrice: 20}}}
	sale := BuildSale(cart, CheckoutInput{DeliveryCharge: 5}, "INV-2024-0003", now)

	if sale.DiscountType != "fixed" {
		t.Fatalf("expected default fixed discount, got %q", sale.DiscountType)
	}
	if len(sale.Items) != 1 || sale.Items[0].UnitPrice != 20 || sale.Items[0].Total != 60 {
		t.Fatalf("unexpected items %+v", sale.Items)
	}
	if sale.TotalAmount != 65 || sale.Profit != 30 {
		t.Fatalf("unexpected totals total=%v profit=%v", sale.TotalAmount, sale.Profit)
	}
	if !sale.Date.Equal(now) {
		t.Fatalf("expected now, got %v", sale.Date)
	}
}

func TestCartAddMergesLines(t *testing.T) {
	var c Cart
	c.Add(models.Product{ID: 1, Name: "Lamp", RetailPrice: 10}, 1)
	c.Add(models.Product{ID: 2, Name: "Mask", RetailPrice: 20}, 1)
	c.Add(models.Product{ID: 1, Name: "Lamp", RetailPrice: 10}, 2)
	if len(c.Lines) != 2 || c.Lines[0].Qty != 3 {
		t.Fatalf("unexpected lines %+v", c.Lines)
	}
	c.Remove(1)
	if len(c.Lines) != 1 || c.Lines[0].ProductID != 2 {
		t.Fatalf("unexpected lines after remove %+v", c.Lines)
	}
}

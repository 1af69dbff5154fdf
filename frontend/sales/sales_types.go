package sales

import (
	"time"

	"miragepos/models"
)

// PriceType selects which product price a cart is charged at. It is stored
// on the sale as its customer type.
type PriceType string

const (
	PriceRetail    PriceType = "retail"
	PriceWholesale PriceType = "wholesale"
)

// Valid reports whether p is a known price type.
func (p PriceType) Valid() bool {
	return p == PriceRetail || p == PriceWholesale
}

// DiscountType is either a percentage of the subtotal or a fixed amount.
type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percent"
)

// CartLine carries the prices shown when the product was added. Saving a
// sale re-reads them from the product.
type CartLine struct {
	ProductID      int64   `json:"productId" validate:"required,gt=0"`
	Name           string  `json:"name"`
	Qty            int64   `json:"qty" validate:"gt=0"`
	CostPrice      float64 `json:"costPrice"`
	RetailPrice    float64 `json:"retailPrice"`
	WholesalePrice float64 `json:"wholesalePrice"`
}

// Price returns the unit price of l under pt.
func (l CartLine) Price(pt PriceType) float64 {
	if pt == PriceWholesale {
		return l.WholesalePrice
	}
	return l.RetailPrice
}

// LineFromProduct snapshots p at qty.
func LineFromProduct(p models.Product, qty int64) CartLine {
	return CartLine{
		ProductID:      p.ID,
		Name:           p.Name,
		Qty:            qty,
		CostPrice:      p.CostPrice,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
	}
}

// Cart is an ephemeral, unsaved sale.
type Cart struct {
	PriceType PriceType  `json:"priceType"`
	Lines     []CartLine `json:"lines" validate:"dive"`
}

// Add puts qty units of p in the cart, merging with an existing line.
func (c *Cart) Add(p models.Product, qty int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Qty += qty
			return
		}
	}
	c.Lines = append(c.Lines, LineFromProduct(p, qty))
}

// Remove drops the line of productID.
func (c *Cart) Remove(productID int64) {
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	c.Lines = out
}

// Empty reports whether the cart holds no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// CheckoutInput is everything the checkout form adds to a cart.
type CheckoutInput struct {
	CustomerName    string       `json:"customerName" validate:"max=200"`
	CustomerAddress string       `json:"customerAddress" validate:"max=500"`
	DeliveryCharge  float64      `json:"deliveryCharge" validate:"gte=0"`
	DiscountType    DiscountType `json:"discountType" validate:"omitempty,oneof=fixed percent"`
	DiscountValue   float64      `json:"discountValue" validate:"gte=0"`
	// CustomInvoice is the operator-typed numeric suffix; empty allocates the next number.
	CustomInvoice string `json:"customInvoice" validate:"omitempty,numeric,max=18"`
	// Date defaults to now. A date-only value keeps the current time of day.
	Date time.Time `json:"date"`
}

// Totals is the derived money of a cart.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
	Profit         float64 `json:"profit"`
	ItemCount      int64   `json:"itemCount"`
}

// CheckoutRequest is the JSON body accepted by the sale endpoints.
type CheckoutRequest struct {
	Cart  Cart          `json:"cart"`
	Input CheckoutInput `json:"input"`
}

// DateRange filters sales by their date, inclusive of From and exclusive of To.
type DateRange struct {
	From time.Time
	To   time.Time
}

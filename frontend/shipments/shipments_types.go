package shipments

import (
	"errors"
	"fmt"

	"miragepos/infrastructure/apperr"
	"miragepos/models"
)

// ErrNoItems is returned when a shipment has no named line with a quantity.
var ErrNoItems = fmt.Errorf("%w: no items to add", apperr.ErrValidation)

// StatusCompleted is the only status a committed shipment gets.
const StatusCompleted = "Completed"

// Line is one row of the intake form. Lines without a name are ignored.
type Line struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Qty         int64   `json:"qty"`
	BaseCost    float64 `json:"baseCost"`
	RetailPrice float64 `json:"retailPrice"`
}

// Intake is the header of a shipment.
type Intake struct {
	Vendor       string  `json:"vendor" validate:"max=200"`
	ShippingCost float64 `json:"shippingCost" validate:"gte=0"`
	ExchangeRate float64 `json:"exchangeRate"`
	Lines        []Line  `json:"lines"`
}

// Plan is the result of allocating freight over the lines.
type Plan struct {
	TotalQty        int64            `json:"totalQty"`
	ShippingPerUnit float64          `json:"shippingPerUnit"`
	ExchangeRate    float64          `json:"exchangeRate"`
	Products        []models.Product `json:"products"`
}

// ImportSummary counts the CSV rows read into lines.
type ImportSummary struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

var errBadHeader = errors.New("invalid CSV header; expected name,category,qty,cost,retail")

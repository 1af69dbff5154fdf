package documents

import (
	"time"

	"miragepos/models"
)

// Document is the printable form shared by invoices and quotations.
type Document struct {
	Title           string
	Number          string
	Date            time.Time
	CustomerType    string
	CustomerName    string
	CustomerAddress string
	Items           []models.LineItem
	Subtotal        float64
	DiscountAmount  float64
	DeliveryCharge  float64
	TotalAmount     float64
}

const (
	ShopName    = "Mirage Handicrafts"
	WalkInLabel = "Walk-in Customer"
)

package backup

import (
	"time"

	"miragepos/models"
)

// Snapshot is the whole-store backup document. Array names and field names
// follow the browser edition's backup file so either can restore the other.
type Snapshot struct {
	Products   []models.Product  `json:"products"`
	Sales      []models.Sale     `json:"sales"`
	Quotations []QuotationDoc    `json:"quotations"`
	Shipments  []models.Shipment `json:"shipments"`
	Vendors    []models.Vendor   `json:"vendors"`
	Settings   []models.Settings `json:"settings"`
	Users      []UserDoc         `json:"users"`
}

// QuotationDoc accepts quotations saved from the checkout screen, which
// stored the price type as priceType instead of customerType.
type QuotationDoc struct {
	models.Quotation
	PriceType string `json:"priceType,omitempty"`
}

// UserDoc carries either a hash or, from older backups, a plaintext password.
type UserDoc struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Password     string    `json:"password,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// ImportResult counts the rows restored per table.
type ImportResult struct {
	Products    int `json:"products"`
	Sales       int `json:"sales"`
	Quotations  int `json:"quotations"`
	Shipments   int `json:"shipments"`
	Vendors     int `json:"vendors"`
	Settings    int `json:"settings"`
	Users       int `json:"users"`
	HashedUsers int `json:"hashedUsers"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents an authenticated app user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Username     string    `bun:"username,notnull" json:"username"`
	PasswordHash string    `bun:"password_hash,notnull" json:"passwordHash"`
	Role         string    `bun:"role,notnull" json:"role"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Session is held in memory only; it lives as long as the process.
type Session struct {
	ID        string
	UserID    int64
	User      User
	UserRoles []string
	ExpiresAt time.Time
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Product is a stock-bearing inventory row. Vendor is free text, not a foreign key.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID             int64   `bun:"id,pk,autoincrement" json:"id"`
	Name           string  `bun:"name,notnull" json:"name"`
	Category       string  `bun:"category,notnull" json:"category"`
	Vendor         string  `bun:"vendor,notnull" json:"vendor"`
	CostPrice      float64 `bun:"cost_price,notnull" json:"costPrice"`
	RetailPrice    float64 `bun:"retail_price,notnull" json:"retailPrice"`
	WholesalePrice float64 `bun:"wholesale_price,notnull" json:"wholesalePrice"`
	Stock          int64   `bun:"stock,notnull" json:"stock"`
}

// LineItem is the snapshot of a product taken when a sale or quotation is saved.
type LineItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Qty       int64   `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	CostPrice float64 `json:"costPrice,omitempty"`
	Total     float64 `json:"total"`
}

// Sale is an invoice. Its existence implies its quantities were taken out of stock.
type Sale struct {
	bun.BaseModel `bun:"table:sales,alias:s"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	InvoiceNo       string     `bun:"invoice_no,notnull" json:"invoiceNo"`
	Date            time.Time  `bun:"date,notnull" json:"date"`
	CustomerType    string     `bun:"customer_type,notnull" json:"customerType"`
	CustomerName    string     `bun:"customer_name" json:"customerName"`
	CustomerAddress string     `bun:"customer_address" json:"customerAddress"`
	Items           []LineItem `bun:"items,type:json" json:"items"`
	TotalAmount     float64    `bun:"total_amount,notnull" json:"totalAmount"`
	Profit          float64    `bun:"profit,notnull" json:"profit"`
	DeliveryCharge  float64    `bun:"delivery_charge,notnull" json:"deliveryCharge"`
	DiscountType    string     `bun:"discount_type,notnull" json:"discountType"`
	DiscountValue   float64    `bun:"discount_value,notnull" json:"discountValue"`
	DiscountAmount  float64    `bun:"discount_amount,notnull" json:"discountAmount"`
}

// Quotation is a draft order with no stock linkage.
type Quotation struct {
	bun.BaseModel `bun:"table:quotations,alias:q"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	QuotationNo     string     `bun:"quotation_no,notnull" json:"quotationNo"`
	Date            time.Time  `bun:"date,notnull" json:"date"`
	CustomerType    string     `bun:"customer_type,notnull" json:"customerType"`
	CustomerName    string     `bun:"customer_name" json:"customerName"`
	CustomerAddress string     `bun:"customer_address" json:"customerAddress"`
	Items           []LineItem `bun:"items,type:json" json:"items"`
	TotalAmount     float64    `bun:"total_amount,notnull" json:"totalAmount"`
	DeliveryCharge  float64    `bun:"delivery_charge,notnull" json:"deliveryCharge"`
	DiscountType    string     `bun:"discount_type,notnull" json:"discountType"`
	DiscountValue   float64    `bun:"discount_value,notnull" json:"discountValue"`
	DiscountAmount  float64    `bun:"discount_amount,notnull" json:"discountAmount"`
}

// Shipment records a stock intake batch. Deleting it never touches the products it created.
type Shipment struct {
	bun.BaseModel `bun:"table:shipments,alias:sh"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	ShipmentID   string    `bun:"shipment_id,notnull" json:"shipmentId"`
	Date         time.Time `bun:"date,notnull" json:"date"`
	Vendor       string    `bun:"vendor,notnull" json:"vendor"`
	TotalCost    float64   `bun:"total_cost,notnull" json:"totalCost"`
	ShippingCost float64   `bun:"shipping_cost,notnull" json:"shippingCost"`
	ExchangeRate float64   `bun:"exchange_rate,notnull" json:"exchangeRate"`
	ItemCount    int64     `bun:"item_count,notnull" json:"itemCount"`
	ProductCount int64     `bun:"product_count,notnull" json:"productCount"`
	Status       string    `bun:"status,notnull" json:"status"`
}

// Settings is the singleton counter record (id "config").
type Settings struct {
	bun.BaseModel `bun:"table:settings,alias:st"`

	ID              string `bun:"id,pk" json:"id"`
	LastInvoiceNo   int64  `bun:"last_invoice_no,notnull" json:"lastInvoiceNo"`
	LastQuotationNo int64  `bun:"last_quotation_no,notnull" json:"lastQuotationNo"`
	LastShipmentID  int64  `bun:"last_shipment_id,notnull" json:"lastShipmentId"`
}

// SettingsID is the primary key of the only settings row.
const SettingsID = "config"

// Vendor is reference data only.
type Vendor struct {
	bun.BaseModel `bun:"table:vendors,alias:v"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull" json:"name"`
	Contact string `bun:"contact" json:"contact"`
}

// SaleEdit is the recovery marker of a delete-then-create sale edit.
type SaleEdit struct {
	bun.BaseModel `bun:"table:sale_edits,alias:se"`

	ID          string     `bun:"id,pk" json:"id"`
	OldSaleID   int64      `bun:"old_sale_id,notnull" json:"oldSaleId"`
	InvoiceNo   string     `bun:"invoice_no,notnull" json:"invoiceNo"`
	Original    Sale       `bun:"original,type:json" json:"original"`
	Replacement Sale       `bun:"replacement,type:json" json:"replacement"`
	Status      string     `bun:"status,notnull" json:"status"`
	NewSaleID   *int64     `bun:"new_sale_id" json:"newSaleId,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	CompletedAt *time.Time `bun:"completed_at" json:"completedAt,omitempty"`
}

// Sale edit statuses.
const (
	SaleEditPending = "pending"
	SaleEditDone    = "done"
)

package products

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Category       string  `json:"category" validate:"max=100"`
	Vendor         string  `json:"vendor" validate:"max=200"`
	CostPrice      float64 `json:"costPrice" validate:"gte=0"`
	RetailPrice    float64 `json:"retailPrice" validate:"gte=0"`
	WholesalePrice float64 `json:"wholesalePrice" validate:"gte=0"`
	Stock          int64   `json:"stock"`
	// Confirm accepts the price warnings.
	Confirm bool `json:"confirm"`
}

const DefaultVendor = "General"

package reports

import "miragepos/models"

// ProfitAndLoss sums sales. COGS is revenue less profit, both net of discount.
type ProfitAndLoss struct {
	SalesCount int64   `json:"salesCount"`
	Revenue    float64 `json:"revenue"`
	Profit     float64 `json:"profit"`
	COGS       float64 `json:"cogs"`
	Discount   float64 `json:"discount"`
}

type ItemSales struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	QtySold   int64   `json:"qtySold"`
	Revenue   float64 `json:"revenue"`
	Stock     int64   `json:"stock,omitempty"`
}

type Movement struct {
	FastMoving []ItemSales `json:"fastMoving"`
	DeadStock  []ItemSales `json:"deadStock"`
}

type Dashboard struct {
	TodaySales    int64         `json:"todaySales"`
	TodayRevenue  float64       `json:"todayRevenue"`
	TodayProfit   float64       `json:"todayProfit"`
	TotalProducts int           `json:"totalProducts"`
	LowStock      int           `json:"lowStock"`
	RecentSales   []models.Sale `json:"recentSales"`
}

// TopN is the length of the movement lists and the recent sales list.
const TopN = 5

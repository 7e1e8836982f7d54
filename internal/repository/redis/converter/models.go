package converter

import "time"

type ProductRedisModel struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	BuyingPrice       int64      `json:"buying_price"`
	SellingPrice      int64      `json:"selling_price"`
	Stock             int64      `json:"stock"`
	LowStockThreshold int64      `json:"low_stock_threshold"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

type DashboardSummaryRedisModel struct {
	TotalProducts int64 `json:"total_products"`
	LowStockItems int64 `json:"low_stock_items"`
	TotalRevenue  int64 `json:"total_revenue"`
	TotalProfit   int64 `json:"total_profit"`
}

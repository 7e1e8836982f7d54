package converter

import (
	"time"

	"github.com/google/uuid"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID                int64      `db:"id"`
	Name              string     `db:"name"`
	Category          string     `db:"category"`
	BuyingPrice       int64      `db:"buying_price"`
	SellingPrice      int64      `db:"selling_price"`
	Stock             int64      `db:"stock"`
	LowStockThreshold int64      `db:"low_stock_threshold"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at"`
}

// SaleModel представляет запись таблицы sales в PostgreSQL.
type SaleModel struct {
	ID           int64     `db:"id"`
	CustomerName *string   `db:"customer_name"`
	TotalAmount  int64     `db:"total_amount"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

// SaleItemModel: строка sale_items вместе с названием товара из products.
type SaleItemModel struct {
	ID          int64  `db:"id"`
	SaleID      int64  `db:"sale_id"`
	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int64  `db:"quantity"`
	UnitPrice   int64  `db:"unit_price"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     uuid.UUID  `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID int64      `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// DashboardSummaryModel хранит результат агрегирующего запроса сводки склада.
type DashboardSummaryModel struct {
	TotalProducts int64 `db:"total_products"`
	LowStockItems int64 `db:"low_stock_items"`
	TotalRevenue  int64 `db:"total_revenue"`
	TotalProfit   int64 `db:"total_profit"`
}

// SalesSummaryModel хранит результат запроса выручки по окнам.
type SalesSummaryModel struct {
	RevenueToday int64 `db:"revenue_today"`
	RevenueWeek  int64 `db:"revenue_week"`
	OrdersToday  int64 `db:"orders_today"`
	OrdersWeek   int64 `db:"orders_week"`
}

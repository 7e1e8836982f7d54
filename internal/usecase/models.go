package usecase

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/google/uuid"
)

// SALE USECASE

// SubmitSaleReq — запрос на проведение продажи. Тег field задаёт имя поля в ошибках валидации.
type SubmitSaleReq struct {
	CustomerName   string        `field:"customerName" validate:"max=255"`
	Items          []SaleLineReq `field:"items" validate:"required,min=1,dive"`
	IdempotencyKey string        `field:"idempotencyKey" validate:"max=128"`
}

// SaleLineReq: товар и количество.
type SaleLineReq struct {
	ProductID int64 `field:"productId" validate:"gt=0"`
	Quantity  int64 `field:"quantity" validate:"gt=0,lte=2147483647"`
}

// SubmitSaleRes описывает результат продажи. Replayed выставляется, если продажа найдена по ключу идемпотентности.
type SubmitSaleRes struct {
	Sale     *domain.Sale
	Replayed bool
}

// PRODUCT USECASE

type CreateProductReq struct {
	Name              string `field:"name" validate:"required,max=255"`
	Category          string `field:"category" validate:"max=255"`
	BuyingPrice       int64  `field:"buyingPrice" validate:"gte=0"`
	SellingPrice      int64  `field:"sellingPrice" validate:"gte=0"`
	Stock             int64  `field:"stock" validate:"gte=0,lte=2147483647"`
	LowStockThreshold *int64 `field:"lowStockThreshold" validate:"omitnil,gte=0,lte=2147483647"`
}

// REPORTS

// DashboardSummary — сводка склада. Денежные поля в копейках.
type DashboardSummary struct {
	TotalProducts int64
	LowStockItems int64
	TotalRevenue  int64
	TotalProfit   int64 // по текущей закупочной цене товара
}

// SalesSummary — показатели продаж за сегодня и последние 7 дней.
type SalesSummary struct {
	RevenueToday      int64
	RevenueWeek       int64
	OrdersToday       int64
	OrdersWeek        int64
	AverageOrderValue int64
}

// OUTBOX

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	OutboxEventSaleCommitted OutboxEventType = "sale.committed"
)

// OutboxEvent — событие, записанное в той же транзакции, что и продажа.
type OutboxEvent struct {
	ID          int64
	EventID     uuid.UUID
	EventType   OutboxEventType
	AggregateID int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// SaleCommittedPayload — тело события sale.committed. Суммы в копейках.
type SaleCommittedPayload struct {
	EventID          string              `json:"eventId"`
	SaleID           int64               `json:"saleId"`
	CustomerName     *string             `json:"customerName,omitempty"`
	TotalAmountCents int64               `json:"totalAmountCents"`
	CreatedAt        time.Time           `json:"createdAt"`
	Items            []SaleCommittedItem `json:"items"`
}

type SaleCommittedItem struct {
	ProductID      int64 `json:"productId"`
	Quantity       int64 `json:"quantity"`
	UnitPriceCents int64 `json:"unitPriceCents"`
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	AggregateID int64
	EventType   OutboxEventType
	Payload     []byte
}

// MAPPERS

func NewWriteRawMessageReq(aggregateID int64, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
	}
}

// NewSaleCommittedEvent строит outbox-событие по сохранённой продаже.
func NewSaleCommittedEvent(sale *domain.Sale) (*OutboxEvent, error) {
	eventID := uuid.New()

	items := make([]SaleCommittedItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleCommittedItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPrice,
		})
	}

	payload, err := json.Marshal(SaleCommittedPayload{
		EventID:          eventID.String(),
		SaleID:           sale.ID,
		CustomerName:     sale.CustomerName,
		TotalAmountCents: sale.TotalAmount,
		CreatedAt:        sale.CreatedAt,
		Items:            items,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:     eventID,
		EventType:   OutboxEventSaleCommitted,
		AggregateID: sale.ID,
		Payload:     payload,
		Status:      OutboxStatusPending,
	}, nil
}

// normalizeCustomerName превращает пустое имя покупателя в отсутствие имени.
func normalizeCustomerName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	return &name
}

package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
)

// TxManager выполняет fn в одной транзакции; репозитории берут её из контекста.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// GetForUpdate блокирует строки товаров до конца транзакции. Отсутствующих id в ответе нет.
	GetForUpdate(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	// DecrementStock уменьшает остаток, только если его хватает, и возвращает новый остаток.
	DecrementStock(ctx context.Context, productID, quantity int64) (int64, error)
}

type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	// ClaimIdempotencyKey занимает ключ до конца транзакции и возвращает продажу,
	// уже проведённую с этим ключом, или e.ErrSaleNotFound.
	ClaimIdempotencyKey(ctx context.Context, key string) (int64, error)
	SaveIdempotencyKey(ctx context.Context, key string, saleID int64) error
	GetSaleIDByIdempotencyKey(ctx context.Context, key string) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}

// ReportRepository читает агрегаты и историю продаж без блокировок.
type ReportRepository interface {
	GetDashboardSummary(ctx context.Context) (*DashboardSummary, error)
	GetSalesSummary(ctx context.Context, dayStart, weekStart time.Time) (*SalesSummary, error)
	ListRecentSales(ctx context.Context, limit int) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
}

// CacheRepository хранит данные с версиями: Set с версией, прочитанной до похода в БД,
// ничего не запишет, если между чтением и записью был Delete.
type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ProductVersion(ctx context.Context, id int64) (int64, error)
	SetProduct(ctx context.Context, product *domain.Product, version int64) error
	DeleteProducts(ctx context.Context, ids []int64) error
	GetDashboardSummary(ctx context.Context) (*DashboardSummary, error)
	DashboardSummaryVersion(ctx context.Context) (int64, error)
	SetDashboardSummary(ctx context.Context, summary *DashboardSummary, version int64) error
	DeleteDashboardSummary(ctx context.Context) error
}

type ReceiptRepository interface {
	Upload(ctx context.Context, saleID int64, data []byte) error
	Get(ctx context.Context, saleID int64) ([]byte, error)
}

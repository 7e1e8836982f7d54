package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// Причины отказа в продаже для метрик.
const (
	RejectInvalidRequest    = "invalid_request"
	RejectProductNotFound   = "product_not_found"
	RejectInsufficientStock = "insufficient_stock"
	RejectStockViolation    = "stock_violation"
	RejectStorageFailure    = "storage_failure"
)

// cacheOpTimeout ограничивает операции с кэшем вне основного запроса.
const cacheOpTimeout = 500 * time.Millisecond

// SaleUseCase проводит продажи: проверка остатков, списание и запись продажи выполняются атомарно.
type SaleUseCase struct {
	txManager   TxManager
	productRepo ProductRepository
	saleRepo    SaleRepository
	outboxRepo  OutboxRepository
	reportRepo  ReportRepository
	receiptRepo ReceiptRepository
	cacheRepo   CacheRepository
	receipts    ReceiptsInfra
	metrics     SalesMetrics
	validator   *validator.Validate
	logger      logger.Logger
	maxLimit    int
}

func NewSaleUC(
	txManager TxManager,
	productRepo ProductRepository,
	saleRepo SaleRepository,
	outboxRepo OutboxRepository,
	reportRepo ReportRepository,
	receiptRepo ReceiptRepository,
	cacheRepo CacheRepository,
	receipts ReceiptsInfra,
	metrics SalesMetrics,
	logger logger.Logger,
	maxLimit int,
) *SaleUseCase {
	return &SaleUseCase{
		txManager:   txManager,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
		reportRepo:  reportRepo,
		receiptRepo: receiptRepo,
		cacheRepo:   cacheRepo,
		receipts:    receipts,
		metrics:     metrics,
		validator:   NewValidator(),
		logger:      logger,
		maxLimit:    maxLimit,
	}
}

// SubmitSale проводит продажу целиком или не проводит её вовсе.
// При повторе с тем же ключом идемпотентности возвращает уже проведённую продажу.
func (s *SaleUseCase) SubmitSale(ctx context.Context, req *SubmitSaleReq) (*SubmitSaleRes, error) {
	const op = "SaleUseCase.SubmitSale"

	if err := validateStruct(s.validator, req); err != nil {
		s.metrics.SaleRejected(RejectInvalidRequest)
		return nil, e.Wrap(op, err)
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		res, err := s.replay(ctx, key)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, e.ErrSaleNotFound) {
			s.metrics.SaleRejected(RejectStorageFailure)
			return nil, e.Wrap(op, e.Storage(err))
		}
	}

	var sale *domain.Sale
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.commitSale(ctx, req, key)
		return err
	})
	if err != nil {
		// Продажа с этим ключом уже закоммичена параллельным запросом
		if key != "" && errors.Is(err, e.ErrIdempotencyRace) {
			res, replayErr := s.replay(ctx, key)
			if replayErr == nil {
				return res, nil
			}
			s.metrics.SaleRejected(RejectStorageFailure)
			return nil, e.Wrap(op, e.Storage(replayErr))
		}

		err = classifySaleError(err)
		s.metrics.SaleRejected(rejectReason(err))
		return nil, e.Wrap(op, err)
	}

	s.afterCommit(ctx, sale)

	return &SubmitSaleRes{Sale: sale}, nil
}

// commitSale выполняется внутри транзакции. Любая ошибка откатывает всё, что было сделано.
func (s *SaleUseCase) commitSale(ctx context.Context, req *SubmitSaleReq, key string) (*domain.Sale, error) {
	// Ключ занимается раньше строк товаров: повтор не должен проверять остатки,
	// уже списанные первым запросом
	if key != "" {
		_, err := s.saleRepo.ClaimIdempotencyKey(ctx, key)
		if err == nil {
			return nil, e.ErrIdempotencyRace
		}
		if !errors.Is(err, e.ErrSaleNotFound) {
			return nil, err
		}
	}

	ids := uniqueProductIDs(req.Items)

	// Строки товаров блокируются до конца транзакции в порядке id
	products, err := s.productRepo.GetForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	items, err := buildSaleItems(req.Items, products)
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.Create(ctx, domain.NewSale(normalizeCustomerName(req.CustomerName), items))
	if err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
		if _, err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if key != "" {
		if err := s.saleRepo.SaveIdempotencyKey(ctx, key, sale.ID); err != nil {
			return nil, err
		}
	}

	event, err := NewSaleCommittedEvent(sale)
	if err != nil {
		return nil, err
	}
	if _, err := s.outboxRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return sale, nil
}

// buildSaleItems проверяет строки в порядке запроса: сначала существование всех товаров,
// затем достаточность остатка с учётом повторов одного товара.
func buildSaleItems(lines []SaleLineReq, products map[int64]*domain.Product) ([]domain.SaleItem, error) {
	for _, line := range lines {
		if _, ok := products[line.ProductID]; !ok {
			return nil, e.WithDetail(e.ErrProductNotFound, "product %d", line.ProductID)
		}
	}

	var total int64
	requested := make(map[int64]int64, len(products))
	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]

		requested[p.ID] += line.Quantity
		if requested[p.ID] > p.Stock {
			return nil, e.WithDetail(
				e.ErrInsufficientStock,
				"product %d (%s): requested %d, available %d",
				p.ID, p.Name, requested[p.ID], p.Stock,
			)
		}

		if p.SellingPrice > 0 && line.Quantity > math.MaxInt64/p.SellingPrice {
			return nil, e.WithDetail(e.ErrInvalidRequest, "line total for product %d is too large", p.ID)
		}

		item := domain.NewSaleItem(p.ID, line.Quantity, p.SellingPrice)
		if total > math.MaxInt64-item.LineTotal() {
			return nil, e.WithDetail(e.ErrInvalidRequest, "sale total is too large")
		}
		total += item.LineTotal()

		item.ProductName = p.Name
		items = append(items, item)
	}

	return items, nil
}

func uniqueProductIDs(lines []SaleLineReq) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	return ids
}

// afterCommit выполняет побочные действия, которые не должны влиять на результат продажи.
func (s *SaleUseCase) afterCommit(ctx context.Context, sale *domain.Sale) {
	const op = "SaleUseCase.afterCommit"

	s.metrics.SaleCommitted(sale.TotalAmount, len(sale.Items))

	evictCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()

	if err := s.cacheRepo.DeleteProducts(evictCtx, sale.ProductIDs()); err != nil {
		s.logger.Warnf("Failed to evict sold products from cache: %v", e.Wrap(op, err))
	}
	if err := s.cacheRepo.DeleteDashboardSummary(evictCtx); err != nil {
		s.logger.Warnf("Failed to evict dashboard summary: %v", e.Wrap(op, err))
	}

	s.receipts.Archive(sale)
}

func (s *SaleUseCase) replay(ctx context.Context, key string) (*SubmitSaleRes, error) {
	saleID, err := s.saleRepo.GetSaleIDByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	sale, err := s.reportRepo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	s.metrics.SaleReplayed()

	return &SubmitSaleRes{Sale: sale, Replayed: true}, nil
}

// classifySaleError оставляет известные виды ошибок как есть, остальное считает сбоем хранилища.
func classifySaleError(err error) error {
	switch {
	case errors.Is(err, e.ErrInvalidRequest),
		errors.Is(err, e.ErrProductNotFound),
		errors.Is(err, e.ErrInsufficientStock),
		errors.Is(err, e.ErrStockViolation),
		errors.Is(err, e.ErrStorageFailure):
		return err
	default:
		return e.Storage(err)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, e.ErrInvalidRequest):
		return RejectInvalidRequest
	case errors.Is(err, e.ErrProductNotFound):
		return RejectProductNotFound
	case errors.Is(err, e.ErrInsufficientStock):
		return RejectInsufficientStock
	case errors.Is(err, e.ErrStockViolation):
		return RejectStockViolation
	default:
		return RejectStorageFailure
	}
}

// ListRecentSales возвращает последние продажи, новые первыми.
func (s *SaleUseCase) ListRecentSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	const op = "SaleUseCase.ListRecentSales"

	if limit <= 0 || limit > s.maxLimit {
		return nil, e.Wrap(op, e.WithDetail(e.ErrInvalidRequest, "limit must be between 1 and %d", s.maxLimit))
	}

	sales, err := s.reportRepo.ListRecentSales(ctx, limit)
	if err != nil {
		return nil, e.Wrap(op, e.Storage(err))
	}

	return sales, nil
}

func (s *SaleUseCase) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	const op = "SaleUseCase.GetSale"

	sale, err := s.reportRepo.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrSaleNotFound) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Wrap(op, e.Storage(err))
	}

	return sale, nil
}

// GetReceipt отдаёт архивный чек продажи. Чек появляется с задержкой после коммита.
func (s *SaleUseCase) GetReceipt(ctx context.Context, saleID int64) ([]byte, error) {
	const op = "SaleUseCase.GetReceipt"

	data, err := s.receiptRepo.Get(ctx, saleID)
	if err != nil {
		if errors.Is(err, e.ErrReceiptNotFound) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Wrap(op, e.Storage(err))
	}

	return data, nil
}

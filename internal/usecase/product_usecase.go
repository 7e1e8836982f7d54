package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// ProductUseCase реализует ведение каталога товаров.
type ProductUseCase struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	validator   *validator.Validate
	logger      logger.Logger
}

func NewProductUC(productRepo ProductRepository, cacheRepo CacheRepository, logger logger.Logger) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		validator:   NewValidator(),
		logger:      logger,
	}
}

// CreateProduct добавляет товар. Если порог низкого остатка не задан, берётся DefaultLowStockThreshold.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := validateStruct(p.validator, req); err != nil {
		return nil, e.Wrap(op, err)
	}

	threshold := domain.DefaultLowStockThreshold
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	product, err := p.productRepo.Create(ctx, domain.NewProduct(
		req.Name,
		req.Category,
		req.BuyingPrice,
		req.SellingPrice,
		req.Stock,
		threshold,
	))
	if err != nil {
		return nil, e.Wrap(op, e.Storage(err))
	}

	// Сводка считает количество товаров, поэтому устаревает
	if err := p.cacheRepo.DeleteDashboardSummary(ctx); err != nil {
		p.logger.Warnf("Failed to evict dashboard summary: %v", e.Wrap(op, err))
	}

	return product, nil
}

// GetProduct ищет товар сначала в кэше, затем в БД.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, e.ErrCacheMiss) {
		p.logger.Warnf("Cache lookup failed, falling back to DB: %v", e.Wrap(op, err))
	}

	// Версия читается до БД, иначе можно вернуть в кэш остаток до продажи
	version, verErr := p.cacheRepo.ProductVersion(ctx, id)

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Wrap(op, e.Storage(err))
	}

	if verErr != nil {
		p.logger.Warnf("Skipping product cache refill: %v", e.Wrap(op, verErr))
		return product, nil
	}

	// Фоновое добавление товара в кэш
	go func(product domain.Product) {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, &product, version); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}(*product)

	return product, nil
}

// ListProducts возвращает весь каталог, упорядоченный по названию.
func (p *ProductUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, e.Storage(err))
	}

	return products, nil
}

package usecase

import (
	"context"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
)

type SaleUC interface {
	SubmitSale(ctx context.Context, req *SubmitSaleReq) (*SubmitSaleRes, error)
	ListRecentSales(ctx context.Context, limit int) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	GetReceipt(ctx context.Context, saleID int64) ([]byte, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type ReportUC interface {
	GetDashboardSummary(ctx context.Context) (*DashboardSummary, error)
	GetSalesSummary(ctx context.Context) (*SalesSummary, error)
}

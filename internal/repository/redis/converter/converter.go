package converter

import (
	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
)

func ToProductRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:                entity.ID,
		Name:              entity.Name,
		Category:          entity.Category,
		BuyingPrice:       entity.BuyingPrice,
		SellingPrice:      entity.SellingPrice,
		Stock:             entity.Stock,
		LowStockThreshold: entity.LowStockThreshold,
		CreatedAt:         entity.CreatedAt,
		UpdatedAt:         entity.UpdatedAt,
	}
}

func ToProduct(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:                model.ID,
		Name:              model.Name,
		Category:          model.Category,
		BuyingPrice:       model.BuyingPrice,
		SellingPrice:      model.SellingPrice,
		Stock:             model.Stock,
		LowStockThreshold: model.LowStockThreshold,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func ToDashboardSummaryRedisModel(summary *usecase.DashboardSummary) *DashboardSummaryRedisModel {
	return &DashboardSummaryRedisModel{
		TotalProducts: summary.TotalProducts,
		LowStockItems: summary.LowStockItems,
		TotalRevenue:  summary.TotalRevenue,
		TotalProfit:   summary.TotalProfit,
	}
}

func ToDashboardSummary(model *DashboardSummaryRedisModel) *usecase.DashboardSummary {
	return &usecase.DashboardSummary{
		TotalProducts: model.TotalProducts,
		LowStockItems: model.LowStockItems,
		TotalRevenue:  model.TotalRevenue,
		TotalProfit:   model.TotalProfit,
	}
}

package converter

import (
	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
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

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
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

func (c ProductConverter) ToArrEntity(models []ProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}

	return res
}

// SaleConverter преобразует продажу и её строки.
type SaleConverter struct{}

func (SaleConverter) ToModel(entity *domain.Sale) *SaleModel {
	return &SaleModel{
		ID:           entity.ID,
		CustomerName: entity.CustomerName,
		TotalAmount:  entity.TotalAmount,
		Status:       string(entity.Status),
		CreatedAt:    entity.CreatedAt,
	}
}

// ToEntity собирает продажу из записи и её строк.
func (SaleConverter) ToEntity(model *SaleModel, items []SaleItemModel) *domain.Sale {
	sale := &domain.Sale{
		ID:           model.ID,
		CustomerName: model.CustomerName,
		TotalAmount:  model.TotalAmount,
		Status:       domain.SaleStatus(model.Status),
		CreatedAt:    model.CreatedAt,
		Items:        make([]domain.SaleItem, 0, len(items)),
	}
	for _, item := range items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:          item.ID,
			SaleID:      item.SaleID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ProductName: item.ProductName,
		})
	}

	return sale
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, c.ToEntity(model))
	}

	return res
}

func ToDashboardSummary(model *DashboardSummaryModel) *usecase.DashboardSummary {
	return &usecase.DashboardSummary{
		TotalProducts: model.TotalProducts,
		LowStockItems: model.LowStockItems,
		TotalRevenue:  model.TotalRevenue,
		TotalProfit:   model.TotalProfit,
	}
}

func ToSalesSummary(model *SalesSummaryModel) *usecase.SalesSummary {
	return &usecase.SalesSummary{
		RevenueToday: model.RevenueToday,
		RevenueWeek:  model.RevenueWeek,
		OrdersToday:  model.OrdersToday,
		OrdersWeek:   model.OrdersWeek,
	}
}

package http

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
)

// SubmitSaleRequest: тело POST /sales.
type SubmitSaleRequest struct {
	CustomerName string            `json:"customerName" example:"Nazim"`
	Items        []SaleLineRequest `json:"items"`
}

type SaleLineRequest struct {
	ProductID int64 `json:"productId" example:"1"`
	Quantity  int64 `json:"quantity" example:"3"`
}

// SubmitSaleResponse описывает результат продажи. Суммы в основных единицах валюты.
type SubmitSaleResponse struct {
	SaleID      int64       `json:"saleId" example:"42"`
	TotalAmount json.Number `json:"totalAmount" swaggertype:"number" example:"1500"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type SaleItemResponse struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   json.Number `json:"unitPrice" swaggertype:"number"`
	LineTotal   json.Number `json:"lineTotal" swaggertype:"number"`
}

type SaleResponse struct {
	ID           int64              `json:"id"`
	CustomerName *string            `json:"customerName"`
	TotalAmount  json.Number        `json:"totalAmount" swaggertype:"number"`
	Status       string             `json:"status" example:"paid"`
	CreatedAt    time.Time          `json:"createdAt"`
	Items        []SaleItemResponse `json:"items"`
}

// CreateProductRequest: тело POST /products. Цены принимаются числом с точностью до копеек.
type CreateProductRequest struct {
	Name              string      `json:"name" example:"HP Laptop"`
	Category          string      `json:"category" example:"Electronics"`
	BuyingPrice       json.Number `json:"buyingPrice" swaggertype:"number" example:"55000"`
	SellingPrice      json.Number `json:"sellingPrice" swaggertype:"number" example:"62000"`
	Stock             int64       `json:"stock" example:"12"`
	LowStockThreshold *int64      `json:"lowStockThreshold,omitempty" example:"5"`
}

type ProductResponse struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Category          string      `json:"category"`
	BuyingPrice       json.Number `json:"buyingPrice" swaggertype:"number"`
	SellingPrice      json.Number `json:"sellingPrice" swaggertype:"number"`
	Stock             int64       `json:"stock"`
	LowStockThreshold int64       `json:"lowStockThreshold"`
	LowStock          bool        `json:"lowStock"`
}

type DashboardSummaryResponse struct {
	TotalProducts int64       `json:"totalProducts"`
	LowStockItems int64       `json:"lowStockItems"`
	TotalRevenue  json.Number `json:"totalRevenue" swaggertype:"number"`
	TotalProfit   json.Number `json:"totalProfit" swaggertype:"number"`
}

type SalesSummaryResponse struct {
	RevenueToday      json.Number `json:"revenueToday" swaggertype:"number"`
	RevenueWeek       json.Number `json:"revenueWeek" swaggertype:"number"`
	OrdersToday       int64       `json:"ordersToday"`
	OrdersWeek        int64       `json:"ordersWeek"`
	AverageOrderValue json.Number `json:"averageOrderValue" swaggertype:"number"`
}

func (r *SubmitSaleRequest) toUsecase(idempotencyKey string) *usecase.SubmitSaleReq {
	items := make([]usecase.SaleLineReq, len(r.Items))
	for i, item := range r.Items {
		items[i] = usecase.SaleLineReq{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	return &usecase.SubmitSaleReq{
		CustomerName:   r.CustomerName,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

func (r *CreateProductRequest) toUsecase() (*usecase.CreateProductReq, error) {
	buying, err := parseMoneyToCents("buyingPrice", r.BuyingPrice)
	if err != nil {
		return nil, err
	}

	selling, err := parseMoneyToCents("sellingPrice", r.SellingPrice)
	if err != nil {
		return nil, err
	}

	return &usecase.CreateProductReq{
		Name:              r.Name,
		Category:          r.Category,
		BuyingPrice:       buying,
		SellingPrice:      selling,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
	}, nil
}

func toSubmitSaleResponse(sale *domain.Sale) *SubmitSaleResponse {
	return &SubmitSaleResponse{
		SaleID:      sale.ID,
		TotalAmount: formatCents(sale.TotalAmount),
		CreatedAt:   sale.CreatedAt,
	}
}

func toSaleResponse(sale *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   formatCents(item.UnitPrice),
			LineTotal:   formatCents(item.LineTotal()),
		}
	}

	return SaleResponse{
		ID:           sale.ID,
		CustomerName: sale.CustomerName,
		TotalAmount:  formatCents(sale.TotalAmount),
		Status:       string(sale.Status),
		CreatedAt:    sale.CreatedAt,
		Items:        items,
	}
}

func toArrSaleResponse(sales []domain.Sale) []SaleResponse {
	res := make([]SaleResponse, len(sales))
	for i := range sales {
		res[i] = toSaleResponse(&sales[i])
	}

	return res
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		BuyingPrice:       formatCents(p.BuyingPrice),
		SellingPrice:      formatCents(p.SellingPrice),
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
	}
}

func toArrProductResponse(products []domain.Product) []ProductResponse {
	res := make([]ProductResponse, len(products))
	for i := range products {
		res[i] = toProductResponse(&products[i])
	}

	return res
}

func toDashboardSummaryResponse(s *usecase.DashboardSummary) *DashboardSummaryResponse {
	return &DashboardSummaryResponse{
		TotalProducts: s.TotalProducts,
		LowStockItems: s.LowStockItems,
		TotalRevenue:  formatCents(s.TotalRevenue),
		TotalProfit:   formatCents(s.TotalProfit),
	}
}

func toSalesSummaryResponse(s *usecase.SalesSummary) *SalesSummaryResponse {
	return &SalesSummaryResponse{
		RevenueToday:      formatCents(s.RevenueToday),
		RevenueWeek:       formatCents(s.RevenueWeek),
		OrdersToday:       s.OrdersToday,
		OrdersWeek:        s.OrdersWeek,
		AverageOrderValue: formatCents(s.AverageOrderValue),
	}
}

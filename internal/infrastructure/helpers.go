package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Receipt — архивный чек продажи. Суммы записаны строками в основных единицах валюты.
type Receipt struct {
	SaleID       int64         `json:"saleId"`
	CustomerName string        `json:"customerName,omitempty"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	Items        []ReceiptLine `json:"items"`
	Total        string        `json:"total"`
}

type ReceiptLine struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

// FormatCents переводит копейки в строку с двумя знаками после точки.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// RenderReceipt сериализует продажу в JSON-чек.
func RenderReceipt(sale *domain.Sale) ([]byte, error) {
	receipt := Receipt{
		SaleID:    sale.ID,
		Status:    string(sale.Status),
		CreatedAt: sale.CreatedAt,
		Items:     make([]ReceiptLine, 0, len(sale.Items)),
		Total:     FormatCents(sale.TotalAmount),
	}
	if sale.CustomerName != nil {
		receipt.CustomerName = *sale.CustomerName
	}

	for _, item := range sale.Items {
		receipt.Items = append(receipt.Items, ReceiptLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   FormatCents(item.UnitPrice),
			LineTotal:   FormatCents(item.LineTotal()),
		})
	}

	return json.MarshalIndent(receipt, "", "  ")
}

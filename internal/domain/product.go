package domain

import "time"

// DefaultLowStockThreshold — порог по умолчанию, если он не задан при создании товара.
const DefaultLowStockThreshold int64 = 5

// Product описывает товар каталога.
type Product struct {
	ID                int64
	Name              string
	Category          string
	BuyingPrice       int64 // Цены хранятся в копейках
	SellingPrice      int64
	Stock             int64
	LowStockThreshold int64
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

func NewProduct(name, category string, buyingPrice, sellingPrice, stock, lowStockThreshold int64) *Product {
	return &Product{
		Name:              name,
		Category:          category,
		BuyingPrice:       buyingPrice,
		SellingPrice:      sellingPrice,
		Stock:             stock,
		LowStockThreshold: lowStockThreshold,
	}
}

// IsLowStock сообщает, что остаток дошёл до порога дозаказа.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

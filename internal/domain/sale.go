package domain

import "time"

type SaleStatus string

const (
	SaleStatusPaid SaleStatus = "paid"
)

// Sale описывает проведённую продажу. После коммита не изменяется.
type Sale struct {
	ID           int64
	CustomerName *string
	TotalAmount  int64 // в копейках
	Status       SaleStatus
	CreatedAt    time.Time
	Items        []SaleItem
}

// SaleItem — строка продажи. UnitPrice — цена продажи на момент проверки остатков,
// дальше из товара не перечитывается.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int64
	UnitPrice int64

	ProductName string // не хранится в строке, подтягивается из товара
}

// NewSale собирает продажу из строк и считает итог.
func NewSale(customerName *string, items []SaleItem) *Sale {
	sale := &Sale{
		CustomerName: customerName,
		Status:       SaleStatusPaid,
		Items:        items,
	}
	sale.TotalAmount = sale.ComputeTotal()

	return sale
}

func NewSaleItem(productID, quantity, unitPrice int64) SaleItem {
	return SaleItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}

// LineTotal возвращает стоимость строки.
func (i SaleItem) LineTotal() int64 {
	return i.Quantity * i.UnitPrice
}

// ComputeTotal суммирует стоимость строк.
func (s *Sale) ComputeTotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.LineTotal()
	}

	return total
}

// ProductIDs возвращает идентификаторы товаров без повторов в порядке первого появления.
func (s *Sale) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(s.Items))
	ids := make([]int64, 0, len(s.Items))
	for _, item := range s.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	return ids
}

package usecase

import (
	"context"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
)

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// ReceiptsInfra архивирует чек проведённой продажи в фоне.
type ReceiptsInfra interface {
	Archive(sale *domain.Sale)
}

type SalesMetrics interface {
	SaleCommitted(totalAmount int64, lines int)
	SaleRejected(reason string)
	SaleReplayed()
}

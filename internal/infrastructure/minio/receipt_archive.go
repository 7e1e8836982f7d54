package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/infrastructure"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/jitter"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
)

const uploadAttempts = 3

// ReceiptArchive загружает чеки проведённых продаж в MinIO в фоне. Продажа уже
// закоммичена, поэтому сбой архивации только логируется.
type ReceiptArchive struct {
	repo          usecase.ReceiptRepository
	logger        logger.Logger
	shutdownCtx   context.Context
	uploadTimeout time.Duration
	backoffBase   time.Duration
	wg            sync.WaitGroup
}

func NewReceiptArchive(
	repo usecase.ReceiptRepository,
	logger logger.Logger,
	shutdownCtx context.Context,
	uploadTimeout time.Duration,
) *ReceiptArchive {
	return &ReceiptArchive{
		repo:          repo,
		logger:        logger,
		shutdownCtx:   shutdownCtx,
		uploadTimeout: uploadTimeout,
		backoffBase:   time.Second,
	}
}

// Archive запускает фоновую загрузку чека.
func (a *ReceiptArchive) Archive(sale *domain.Sale) {
	a.wg.Add(1)
	go a.upload(sale)
}

// upload пытается загрузить чек несколько раз с экспоненциальной задержкой и jitter.
func (a *ReceiptArchive) upload(sale *domain.Sale) {
	defer a.wg.Done()
	const op = "ReceiptArchive.upload"

	data, err := infrastructure.RenderReceipt(sale)
	if err != nil {
		a.logger.Errorf(err, "%s: failed to render receipt, sale_id=%d", op, sale.ID)
		return
	}

	ctx, cancel := context.WithTimeout(a.shutdownCtx, a.uploadTimeout)
	defer cancel()

	backoff := jitter.NewBackoff(a.backoffBase, 4*a.backoffBase)
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		err = a.repo.Upload(ctx, sale.ID, data)
		if err == nil {
			a.logger.Debugf("%s: receipt archived, sale_id=%d", op, sale.ID)
			return
		}

		if attempt == uploadAttempts {
			break
		}

		select {
		case <-time.After(backoff.Next()):
		case <-ctx.Done():
			a.logger.Warnf("%s: interrupted, sale_id=%d: %v", op, sale.ID, ctx.Err())
			return
		}
	}

	a.logger.Errorf(err, "%s: giving up on receipt, sale_id=%d", op, sale.ID)
}

// Wait ожидает завершения фоновых загрузок с учётом таймаута завершения приложения.
func (a *ReceiptArchive) Wait(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("receipt archive timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

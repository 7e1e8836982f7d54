package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
)

// ReportUseCase считает сводки для дашбордов. Отчёты не блокируют продажи.
type ReportUseCase struct {
	reportRepo ReportRepository
	cacheRepo  CacheRepository
	logger     logger.Logger
	now        func() time.Time
}

func NewReportUC(reportRepo ReportRepository, cacheRepo CacheRepository, logger logger.Logger) *ReportUseCase {
	return &ReportUseCase{
		reportRepo: reportRepo,
		cacheRepo:  cacheRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// GetDashboardSummary возвращает сводку склада. Кэш живёт недолго и сбрасывается после каждой продажи.
func (r *ReportUseCase) GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	const op = "ReportUseCase.GetDashboardSummary"

	cached, err := r.cacheRepo.GetDashboardSummary(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, e.ErrCacheMiss) {
		r.logger.Warnf("Cache lookup failed, falling back to DB: %v", e.Wrap(op, err))
	}

	version, verErr := r.cacheRepo.DashboardSummaryVersion(ctx)

	summary, err := r.reportRepo.GetDashboardSummary(ctx)
	if err != nil {
		return nil, e.Wrap(op, e.Storage(err))
	}

	if verErr != nil {
		r.logger.Warnf("Skipping dashboard summary cache refill: %v", e.Wrap(op, verErr))
		return summary, nil
	}

	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()
	if err := r.cacheRepo.SetDashboardSummary(setCtx, summary, version); err != nil {
		r.logger.Warnf("Failed to cache dashboard summary: %v", e.Wrap(op, err))
	}

	return summary, nil
}

// GetSalesSummary считает выручку и число заказов за сегодня и за последние 7 дней, включая сегодня.
// Границы дня берутся в UTC.
func (r *ReportUseCase) GetSalesSummary(ctx context.Context) (*SalesSummary, error) {
	const op = "ReportUseCase.GetSalesSummary"

	dayStart := r.now().UTC().Truncate(24 * time.Hour)
	weekStart := dayStart.AddDate(0, 0, -6)

	summary, err := r.reportRepo.GetSalesSummary(ctx, dayStart, weekStart)
	if err != nil {
		return nil, e.Wrap(op, e.Storage(err))
	}

	if summary.OrdersWeek > 0 {
		summary.AverageOrderValue = summary.RevenueWeek / summary.OrdersWeek
	}

	return summary, nil
}

package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

// ReportRepo читает агрегаты и историю продаж через sqlx. Каждый отчёт —
// один снимок: либо один запрос, либо read-only транзакция REPEATABLE READ.
type ReportRepo struct {
	db   *sqlx.DB
	conv converter.SaleConverter
}

func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// GetDashboardSummary считает сводку одним запросом. Прибыль считается по текущей
// закупочной цене товара, а не по цене на момент продажи.
func (r *ReportRepo) GetDashboardSummary(ctx context.Context) (*usecase.DashboardSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products)::bigint AS total_products,
			(SELECT COUNT(*) FROM products WHERE stock <= low_stock_threshold)::bigint AS low_stock_items,
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales)::bigint AS total_revenue,
			(
				SELECT COALESCE(SUM((si.unit_price - p.buying_price) * si.quantity), 0)
				FROM sale_items si
				JOIN products p ON p.id = si.product_id
			)::bigint AS total_profit
	`

	var model converter.DashboardSummaryModel
	if err := r.db.GetContext(ctx, &model, query); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ToDashboardSummary(&model), nil
}

// GetSalesSummary считает выручку и число заказов с dayStart и с weekStart.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, dayStart, weekStart time.Time) (*usecase.SalesSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE created_at >= $1), 0)::bigint AS revenue_today,
			COALESCE(SUM(total_amount), 0)::bigint AS revenue_week,
			COUNT(*) FILTER (WHERE created_at >= $1)::bigint AS orders_today,
			COUNT(*)::bigint AS orders_week
		FROM sales
		WHERE created_at >= $2
	`

	var model converter.SalesSummaryModel
	if err := r.db.GetContext(ctx, &model, query, dayStart, weekStart); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ToSalesSummary(&model), nil
}

// ListRecentSales возвращает последние продажи вместе со строками. Продажи и строки
// читаются из одного снимка, поэтому незакоммиченная продажа не видна целиком.
func (r *ReportRepo) ListRecentSales(ctx context.Context, limit int) (sales []domain.Sale, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() { _ = tx.Rollback() }()

	var saleModels []converter.SaleModel
	query := `
		SELECT id, customer_name, total_amount, status, created_at
		FROM sales
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	if err := tx.SelectContext(ctx, &saleModels, query, limit); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(saleModels) == 0 {
		return []domain.Sale{}, nil
	}

	ids := make([]int64, 0, len(saleModels))
	for _, m := range saleModels {
		ids = append(ids, m.ID)
	}

	itemsBySale, err := r.selectItems(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	sales = make([]domain.Sale, 0, len(saleModels))
	for i := range saleModels {
		sales = append(sales, *r.conv.ToEntity(&saleModels[i], itemsBySale[saleModels[i].ID]))
	}

	return sales, nil
}

func (r *ReportRepo) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() { _ = tx.Rollback() }()

	var model converter.SaleModel
	query := `SELECT id, customer_name, total_amount, status, created_at FROM sales WHERE id = $1`
	if err := tx.GetContext(ctx, &model, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.WithDetail(e.ErrSaleNotFound, "sale %d", id)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itemsBySale, err := r.selectItems(ctx, tx, []int64{id})
	if err != nil {
		return nil, err
	}

	return r.conv.ToEntity(&model, itemsBySale[id]), nil
}

func (r *ReportRepo) selectItems(ctx context.Context, tx *sqlx.Tx, saleIDs []int64) (map[int64][]converter.SaleItemModel, error) {
	query, args, err := sqlx.In(`
		SELECT si.id, si.sale_id, si.product_id, p.name AS product_name, si.quantity, si.unit_price
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id IN (?)
		ORDER BY si.sale_id, si.id
	`, saleIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var items []converter.SaleItemModel
	if err := tx.SelectContext(ctx, &items, tx.Rebind(query), args...); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res := make(map[int64][]converter.SaleItemModel, len(saleIDs))
	for _, item := range items {
		res[item.SaleID] = append(res[item.SaleID], item)
	}

	return res, nil
}

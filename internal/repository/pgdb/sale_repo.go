package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SaleRepo записывает продажи и ключи идемпотентности. Запись только внутри транзакции.
type SaleRepo struct {
	pool *pgxpool.Pool
	conv converter.SaleConverter
}

func NewSaleRepo(pool *pgxpool.Pool) *SaleRepo {
	return &SaleRepo{pool: pool}
}

// Create вставляет продажу и все её строки одной пачкой.
func (s *SaleRepo) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := s.conv.ToModel(sale)
	query := `
		INSERT INTO sales (customer_name, total_amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := tx.QueryRow(ctx, query, model.CustomerName, model.TotalAmount, model.Status).
		Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	itemQuery := `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	batch := &pgx.Batch{}
	for _, item := range sale.Items {
		batch.Queue(itemQuery, model.ID, item.ProductID, item.Quantity, item.UnitPrice)
	}

	results := tx.SendBatch(ctx, batch)
	items := make([]converter.SaleItemModel, 0, len(sale.Items))
	for _, item := range sale.Items {
		itemModel := converter.SaleItemModel{
			SaleID:      model.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		if err := results.QueryRow().Scan(&itemModel.ID); err != nil {
			_ = results.Close()
			return nil, classifyWriteErr(whereami.WhereAmI(), err)
		}
		items = append(items, itemModel)
	}
	if err := results.Close(); err != nil {
		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(model, items), nil
}

// ClaimIdempotencyKey берёт транзакционную advisory-блокировку по ключу и затем ищет продажу с ним.
// Параллельный запрос с тем же ключом ждёт здесь, до блокировки строк товаров, и после коммита
// первого видит его продажу.
func (s *SaleRepo) ClaimIdempotencyKey(ctx context.Context, key string) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return 0, classifyWriteErr(whereami.WhereAmI(), err)
	}

	query := `SELECT sale_id FROM sale_idempotency_keys WHERE key = $1`

	var saleID int64
	if err := tx.QueryRow(ctx, query, key).Scan(&saleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, e.ErrSaleNotFound
		}
		return 0, e.Wrap(whereami.WhereAmI(), e.Storage(err))
	}

	return saleID, nil
}

// SaveIdempotencyKey привязывает ключ к продаже. Если ключ уже занят параллельной
// продажей, возвращает ErrIdempotencyRace, и транзакция должна быть откачена.
func (s *SaleRepo) SaveIdempotencyKey(ctx context.Context, key string, saleID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `INSERT INTO sale_idempotency_keys (key, sale_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, query, key, saleID); err != nil {
		if postgresDuplicate(err) {
			return e.Wrap(whereami.WhereAmI(), e.ErrIdempotencyRace)
		}
		return classifyWriteErr(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SaleRepo) GetSaleIDByIdempotencyKey(ctx context.Context, key string) (int64, error) {
	query := `SELECT sale_id FROM sale_idempotency_keys WHERE key = $1`

	var saleID int64
	if err := s.pool.QueryRow(ctx, query, key).Scan(&saleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, e.ErrSaleNotFound
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return saleID, nil
}

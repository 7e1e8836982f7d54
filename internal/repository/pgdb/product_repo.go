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

const productColumns = `id, name, category, buying_price, selling_price, stock, low_stock_threshold, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, category, buying_price, selling_price, stock, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	model := p.conv.ToModel(product)
	rows, err := p.pool.Query(ctx, query,
		model.Name,
		model.Category,
		model.BuyingPrice,
		model.SellingPrice,
		model.Stock,
		model.LowStockThreshold,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&created), nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.WithDetail(e.ErrProductNotFound, "product %d", id)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// List возвращает все товары по названию.
func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// GetForUpdate блокирует строки товаров в порядке id, чтобы параллельные продажи
// с пересекающимися товарами не ловили взаимоблокировку.
func (p *ProductRepo) GetForUpdate(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	res := make(map[int64]*domain.Product, len(models))
	for i := range models {
		res[models[i].ID] = p.conv.ToEntity(&models[i])
	}

	return res, nil
}

// DecrementStock списывает остаток условным UPDATE. Если остатка не хватило,
// строка не обновляется и возвращается ErrStockViolation.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID, quantity int64) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
		RETURNING stock
	`

	var stock int64
	if err := tx.QueryRow(ctx, query, quantity, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, e.Wrap(whereami.WhereAmI(), e.WithDetail(e.ErrStockViolation, "product %d", productID))
		}
		return 0, classifyStockWriteErr(whereami.WhereAmI(), err)
	}

	return stock, nil
}

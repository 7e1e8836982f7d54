package tr

import (
	"context"
	"errors"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

type ctxKey struct{}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(ctxKey{}).(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// WithTx кладёт транзакцию в контекст.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

// Manager выполняет функцию внутри одной транзакции PostgreSQL.
type Manager struct {
	db   transaction.Transactional
	opts pgx.TxOptions
}

func NewManager(db transaction.Transactional, opts pgx.TxOptions) *Manager {
	return &Manager{db: db, opts: opts}
}

// Do открывает транзакцию, передаёт в fn контекст с ней и фиксирует её, если fn вернула nil.
// При любой ошибке (в том числе при отмене ctx) транзакция откатывается целиком.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "tr.Manager.Do"

	ctx, tx, err := transaction.NewTransaction(ctx, m.opts, m.db)
	if err != nil {
		return e.Wrap(op, err)
	}

	defer func() {
		if err != nil {
			// IsActive() становится false уже при отмене ctx, поэтому откатываем безусловно
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, e.Wrap(op, rbErr))
			}
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(op, e.ErrTransactionNotFound)
	}

	if err = fn(WithTx(ctx, pgxTx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

package pgdb

import (
	"errors"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

func postgresDuplicate(err error) bool {
	return pgErrorCode(err) == codeUniqueViolation
}

// classifyWriteErr переводит конфликты конкурентных транзакций в ErrStockViolation,
// остальные ошибки БД, включая нарушения CHECK, считает сбоем хранилища.
func classifyWriteErr(op string, err error) error {
	switch pgErrorCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return e.Wrap(op, e.WithDetail(e.ErrStockViolation, "%v", err))
	default:
		return e.Wrap(op, e.Storage(err))
	}
}

// classifyStockWriteErr используется только при изменении остатка: там нарушение CHECK (stock >= 0)
// означает, что остатка не хватило.
func classifyStockWriteErr(op string, err error) error {
	if pgErrorCode(err) == codeCheckViolation {
		return e.Wrap(op, e.WithDetail(e.ErrStockViolation, "%v", err))
	}

	return classifyWriteErr(op, err)
}

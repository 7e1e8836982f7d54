package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrIdempotencyRace     = errors.New("idempotency key already taken")

	// Ошибки продажи
	ErrInvalidRequest    = errors.New("invalid request")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockViolation    = errors.New("stock changed concurrently, retry the sale")
	ErrStorageFailure    = errors.New("storage failure")

	// 404 Not Found
	ErrSaleNotFound    = errors.New("sale not found")
	ErrReceiptNotFound = errors.New("receipt not found")

	// Кэш
	ErrCacheMiss = errors.New("cache miss")

	// 500
	ErrInternalServerError  = errors.New("internal server error")
	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Detailed — ошибка с пояснением для клиента, сохраняющая вид ошибки (Kind) для errors.Is.
type Detailed struct {
	Kind   error
	Detail string
}

func (d *Detailed) Error() string {
	return d.Kind.Error() + ": " + d.Detail
}

func (d *Detailed) Unwrap() error {
	return d.Kind
}

// WithDetail создаёт ошибку вида kind с форматированным пояснением.
func WithDetail(kind error, format string, args ...any) error {
	return &Detailed{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Storage помечает ошибку хранилища как ErrStorageFailure, не теряя исходную причину.
func Storage(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

// Message возвращает текст, пригодный для ответа клиенту:
// пояснение из Detailed, если оно есть в цепочке, иначе текст kind.
func Message(err error, kind error) string {
	var d *Detailed
	if errors.As(err, &d) && errors.Is(d.Kind, kind) {
		return d.Error()
	}

	return kind.Error()
}

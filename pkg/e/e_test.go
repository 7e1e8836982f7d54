package e_test

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestDetailedKeepsKind(t *testing.T) {
	t.Parallel()

	err := e.Wrap("SaleUseCase.SubmitSale", e.WithDetail(e.ErrInsufficientStock, "product %d: requested %d, available %d", 7, 5, 2))

	assert.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.NotErrorIs(t, err, e.ErrProductNotFound)
	assert.Equal(t, "insufficient stock: product 7: requested 5, available 2", e.Message(err, e.ErrInsufficientStock))
}

func TestMessageFallsBackToKind(t *testing.T) {
	t.Parallel()

	err := e.Wrap("op", e.ErrProductNotFound)
	assert.Equal(t, "product not found", e.Message(err, e.ErrProductNotFound))
}

func TestStorage(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset by peer")
	err := e.Storage(cause)

	assert.ErrorIs(t, err, e.ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, e.Storage(nil))
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	uc       *SaleUseCase
	store    *fakeStore
	products *fakeProductRepo
	outbox   *fakeOutboxRepo
	cache    *fakeCache
	receipts *fakeReceipts
	metrics  *fakeMetrics
}

func newSaleFixture(products ...domain.Product) *saleFixture {
	store := newFakeStore(products...)
	f := &saleFixture{
		store:    store,
		products: &fakeProductRepo{s: store},
		outbox:   &fakeOutboxRepo{s: store},
		cache:    newFakeCache(),
		receipts: &fakeReceipts{},
		metrics:  newFakeMetrics(),
	}
	f.uc = NewSaleUC(
		store,
		f.products,
		&fakeSaleRepo{s: store},
		f.outbox,
		&fakeReportRepo{s: store},
		&fakeReceiptRepo{data: map[int64][]byte{}},
		f.cache,
		f.receipts,
		f.metrics,
		logger.NewNop(),
		200,
	)

	return f
}

func product(id, selling, buying, stock int64) domain.Product {
	return domain.Product{
		ID:                id,
		Name:              "product",
		Category:          "General",
		BuyingPrice:       buying,
		SellingPrice:      selling,
		Stock:             stock,
		LowStockThreshold: domain.DefaultLowStockThreshold,
	}
}

func saleReq(lines ...SaleLineReq) *SubmitSaleReq {
	return &SubmitSaleReq{Items: lines}
}

func line(productID, quantity int64) SaleLineReq {
	return SaleLineReq{ProductID: productID, Quantity: quantity}
}

func TestSubmitSaleSuccess(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))

	res, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 3)))
	require.NoError(t, err)

	assert.False(t, res.Replayed)
	assert.Equal(t, int64(1500), res.Sale.TotalAmount)
	assert.Equal(t, domain.SaleStatusPaid, res.Sale.Status)
	require.Len(t, res.Sale.Items, 1)
	assert.Equal(t, int64(500), res.Sale.Items[0].UnitPrice)
	assert.Equal(t, int64(7), f.store.stock(1))
	assert.Equal(t, 1, f.store.outboxLen())
	assert.Equal(t, 1, f.metrics.committed)
	assert.Equal(t, []int64{res.Sale.ID}, f.receipts.archived)
	assert.Equal(t, []int64{1}, f.cache.evicted)
}

func TestSubmitSaleMultiLineTotal(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 62000_00, 50000_00, 5), product(2, 799_00, 400_00, 40))

	res, err := f.uc.SubmitSale(context.Background(), &SubmitSaleReq{
		CustomerName: "  Rahul Kumar ",
		Items:        []SaleLineReq{line(1, 2), line(2, 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2*62000_00+799_00), res.Sale.TotalAmount)
	require.NotNil(t, res.Sale.CustomerName)
	assert.Equal(t, "Rahul Kumar", *res.Sale.CustomerName)
	assert.Equal(t, int64(3), f.store.stock(1))
	assert.Equal(t, int64(39), f.store.stock(2))
}

func TestSubmitSaleRejectsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    *SubmitSaleReq
		kind   error
		reason string
	}{
		{
			name:   "empty items",
			req:    &SubmitSaleReq{Items: []SaleLineReq{}},
			kind:   e.ErrInvalidRequest,
			reason: RejectInvalidRequest,
		},
		{
			name:   "nil items",
			req:    &SubmitSaleReq{},
			kind:   e.ErrInvalidRequest,
			reason: RejectInvalidRequest,
		},
		{
			name:   "zero quantity",
			req:    saleReq(line(1, 0)),
			kind:   e.ErrInvalidRequest,
			reason: RejectInvalidRequest,
		},
		{
			name:   "negative quantity",
			req:    saleReq(line(1, -2)),
			kind:   e.ErrInvalidRequest,
			reason: RejectInvalidRequest,
		},
		{
			name:   "unknown product after a valid line",
			req:    saleReq(line(1, 1), line(99, 1)),
			kind:   e.ErrProductNotFound,
			reason: RejectProductNotFound,
		},
		{
			name:   "quantity above stock",
			req:    saleReq(line(1, 11)),
			kind:   e.ErrInsufficientStock,
			reason: RejectInsufficientStock,
		},
		{
			name:   "repeated product exceeds stock cumulatively",
			req:    saleReq(line(1, 6), line(2, 1), line(1, 5)),
			kind:   e.ErrInsufficientStock,
			reason: RejectInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newSaleFixture(product(1, 500, 300, 10), product(2, 100, 50, 3))

			res, err := f.uc.SubmitSale(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)

			assert.Equal(t, int64(10), f.store.stock(1))
			assert.Equal(t, int64(3), f.store.stock(2))
			assert.Zero(t, f.store.salesCount())
			assert.Zero(t, f.store.outboxLen())
			assert.Equal(t, 1, f.metrics.rejected[tt.reason])
			assert.Empty(t, f.receipts.archived)
		})
	}
}

func TestSubmitSaleProductNotFoundBeatsInsufficientStock(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 1))

	_, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 5), line(42, 1)))
	require.Error(t, err)

	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.Contains(t, e.Message(err, e.ErrProductNotFound), "product 42")
}

func TestSubmitSaleInsufficientStockDetail(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(7, 500, 300, 2))

	_, err := f.uc.SubmitSale(context.Background(), saleReq(line(7, 5)))
	require.Error(t, err)

	assert.Equal(t,
		"insufficient stock: product 7 (product): requested 5, available 2",
		e.Message(err, e.ErrInsufficientStock),
	)
}

func TestSubmitSaleValidationDetail(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))

	_, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 1), line(1, 0)))
	require.Error(t, err)

	assert.Equal(t,
		"invalid request: items[1].quantity must be greater than 0",
		e.Message(err, e.ErrInvalidRequest),
	)
}

func TestSubmitSaleRollsBackOnLateFailure(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10), product(2, 100, 50, 10))
	f.outbox.err = errors.New("connection reset by peer")

	_, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 2), line(2, 2)))
	require.Error(t, err)

	assert.ErrorIs(t, err, e.ErrStorageFailure)
	assert.Equal(t, int64(10), f.store.stock(1))
	assert.Equal(t, int64(10), f.store.stock(2))
	assert.Zero(t, f.store.salesCount())
	assert.Equal(t, 1, f.metrics.rejected[RejectStorageFailure])
}

func TestSubmitSaleStockViolation(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))
	f.products.decrementErr = e.WithDetail(e.ErrStockViolation, "product 1")

	_, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 1)))
	require.Error(t, err)

	assert.ErrorIs(t, err, e.ErrStockViolation)
	assert.Zero(t, f.store.salesCount())
	assert.Equal(t, 1, f.metrics.rejected[RejectStockViolation])
}

func TestSubmitSaleCacheFailureDoesNotFailSale(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))
	f.cache.err = errors.New("redis: connection refused")

	res, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 1)))
	require.NoError(t, err)

	assert.Equal(t, int64(500), res.Sale.TotalAmount)
	assert.Equal(t, int64(9), f.store.stock(1))
}

func TestSubmitSaleIdempotencyReplay(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))
	req := &SubmitSaleReq{Items: []SaleLineReq{line(1, 4)}, IdempotencyKey: "order-17"}

	first, err := f.uc.SubmitSale(context.Background(), req)
	require.NoError(t, err)

	second, err := f.uc.SubmitSale(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Equal(t, int64(6), f.store.stock(1))
	assert.Equal(t, 1, f.store.salesCount())
	assert.Equal(t, 1, f.metrics.replayed)
}

// rendezvousSaleRepo задерживает первые n проверок ключа, пока до них не дойдут все n запросов.
type rendezvousSaleRepo struct {
	*fakeSaleRepo

	mu      sync.Mutex
	pending int
	all     chan struct{}
}

func newRendezvousSaleRepo(repo *fakeSaleRepo, n int) *rendezvousSaleRepo {
	return &rendezvousSaleRepo{fakeSaleRepo: repo, pending: n, all: make(chan struct{})}
}

func (r *rendezvousSaleRepo) GetSaleIDByIdempotencyKey(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	if r.pending > 0 {
		r.pending--
		if r.pending == 0 {
			close(r.all)
		}
		r.mu.Unlock()
		<-r.all
	} else {
		r.mu.Unlock()
	}

	return r.fakeSaleRepo.GetSaleIDByIdempotencyKey(ctx, key)
}

func TestSubmitSaleConcurrentSameKeyReplaysLastUnits(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 4))
	f.uc.saleRepo = newRendezvousSaleRepo(&fakeSaleRepo{s: f.store}, 2)
	req := &SubmitSaleReq{Items: []SaleLineReq{line(1, 4)}, IdempotencyKey: "order-1"}

	var (
		wg  sync.WaitGroup
		res [2]*SubmitSaleRes
		err [2]error
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res[i], err[i] = f.uc.SubmitSale(context.Background(), req)
		}()
	}
	wg.Wait()

	require.NoError(t, err[0])
	require.NoError(t, err[1])
	assert.Equal(t, res[0].Sale.ID, res[1].Sale.ID)
	assert.NotEqual(t, res[0].Replayed, res[1].Replayed)
	assert.Equal(t, 1, f.store.salesCount())
	assert.Equal(t, int64(0), f.store.stock(1))
	assert.Equal(t, 1, f.store.outboxLen())
	assert.Empty(t, f.metrics.rejected)
}

// Ни одна последовательность конкурентных продаж не уводит остаток ниже нуля,
// а сумма проданного и оставшегося равна исходному остатку.
func TestSubmitSaleConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	const (
		initialStock = 10
		buyers       = 25
	)
	f := newSaleFixture(product(1, 500, 300, initialStock))

	var (
		wg   sync.WaitGroup
		sold atomic.Int64
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.uc.SubmitSale(context.Background(), saleReq(line(1, 1)))
			if err == nil {
				sold.Add(1)
				return
			}
			assert.ErrorIs(t, err, e.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(initialStock), sold.Load())
	assert.Equal(t, int64(0), f.store.stock(1))
	assert.Equal(t, initialStock, f.store.salesCount())
}

func TestListRecentSalesLimit(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(product(1, 500, 300, 10))

	_, err := f.uc.ListRecentSales(context.Background(), 0)
	assert.ErrorIs(t, err, e.ErrInvalidRequest)

	_, err = f.uc.ListRecentSales(context.Background(), 201)
	assert.ErrorIs(t, err, e.ErrInvalidRequest)

	_, err = f.uc.SubmitSale(context.Background(), saleReq(line(1, 1)))
	require.NoError(t, err)

	sales, err := f.uc.ListRecentSales(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestGetSaleAndReceiptNotFound(t *testing.T) {
	t.Parallel()

	f := newSaleFixture()

	_, err := f.uc.GetSale(context.Background(), 404)
	assert.ErrorIs(t, err, e.ErrSaleNotFound)

	_, err = f.uc.GetReceipt(context.Background(), 404)
	assert.ErrorIs(t, err, e.ErrReceiptNotFound)
}

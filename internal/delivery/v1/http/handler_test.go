package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/DRSN-tech/inventory-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaleUC struct {
	lastReq   *usecase.SubmitSaleReq
	lastLimit int
	res       *usecase.SubmitSaleRes
	sale      *domain.Sale
	receipt   []byte
	err       error
}

func (f *fakeSaleUC) SubmitSale(_ context.Context, req *usecase.SubmitSaleReq) (*usecase.SubmitSaleRes, error) {
	f.lastReq = req
	return f.res, f.err
}

func (f *fakeSaleUC) ListRecentSales(_ context.Context, limit int) ([]domain.Sale, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if f.sale == nil {
		return []domain.Sale{}, nil
	}
	return []domain.Sale{*f.sale}, nil
}

func (f *fakeSaleUC) GetSale(context.Context, int64) (*domain.Sale, error) {
	return f.sale, f.err
}

func (f *fakeSaleUC) GetReceipt(context.Context, int64) ([]byte, error) {
	return f.receipt, f.err
}

type fakeProductUC struct {
	lastReq *usecase.CreateProductReq
	product *domain.Product
	err     error
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.CreateProductReq) (*domain.Product, error) {
	f.lastReq = req
	return f.product, f.err
}

func (f *fakeProductUC) GetProduct(context.Context, int64) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProductUC) ListProducts(context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Product{*f.product}, nil
}

type fakeReportUC struct {
	dashboard *usecase.DashboardSummary
	sales     *usecase.SalesSummary
	err       error
}

func (f *fakeReportUC) GetDashboardSummary(context.Context) (*usecase.DashboardSummary, error) {
	return f.dashboard, f.err
}

func (f *fakeReportUC) GetSalesSummary(context.Context) (*usecase.SalesSummary, error) {
	return f.sales, f.err
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type testServer struct {
	handler http.Handler
	sales   *fakeSaleUC
	prods   *fakeProductUC
	reports *fakeReportUC
}

func newTestServer(t *testing.T, healthErr error) *testServer {
	t.Helper()

	reg := metrics.NewRegistry()
	mux := chi.NewRouter()
	ts := &testServer{
		handler: mux,
		sales:   &fakeSaleUC{},
		prods:   &fakeProductUC{},
		reports: &fakeReportUC{},
	}

	httpCfg := &cfg.HTTPConfig{RequestTimeout: 5 * time.Second, SwaggerURL: "http://localhost:8080/swagger/doc.json"}
	router := NewRouter(mux, logger.NewNop(), httpCfg, reg, metrics.NewServerMetrics(reg, "api"))
	router.Init(ts.sales, ts.prods, ts.reports, fakeHealth{err: healthErr}, 50)

	return ts
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Error
}

func TestSubmitSaleCreated(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	createdAt := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	ts.sales.res = &usecase.SubmitSaleRes{Sale: &domain.Sale{ID: 42, TotalAmount: 1500_00, CreatedAt: createdAt}}

	rec := ts.do(http.MethodPost, "/api/v1/sales",
		`{"customerName":"Nazim","items":[{"productId":1,"quantity":3}]}`,
		map[string]string{idempotencyKeyHeader: "checkout-7"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"saleId":42,"totalAmount":1500,"createdAt":"2026-03-12T10:00:00Z"}`, rec.Body.String())

	require.NotNil(t, ts.sales.lastReq)
	assert.Equal(t, "Nazim", ts.sales.lastReq.CustomerName)
	assert.Equal(t, "checkout-7", ts.sales.lastReq.IdempotencyKey)
	assert.Equal(t, []usecase.SaleLineReq{{ProductID: 1, Quantity: 3}}, ts.sales.lastReq.Items)
}

func TestSubmitSaleReplayReturnsOK(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.sales.res = &usecase.SubmitSaleRes{Sale: &domain.Sale{ID: 42, TotalAmount: 499_99}, Replayed: true}

	rec := ts.do(http.MethodPost, "/api/v1/sales", `{"items":[{"productId":1,"quantity":1}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalAmount":499.99`)
}

func TestSubmitSaleErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "validation",
			err:     e.Wrap("SaleUseCase.SubmitSale", e.WithDetail(e.ErrInvalidRequest, "items must contain at least 1 element(s)")),
			code:    http.StatusBadRequest,
			message: "invalid request: items must contain at least 1 element(s)",
		},
		{
			name:    "unknown product",
			err:     e.WithDetail(e.ErrProductNotFound, "product 999 does not exist"),
			code:    http.StatusBadRequest,
			message: "product not found: product 999 does not exist",
		},
		{
			name:    "insufficient stock",
			err:     e.WithDetail(e.ErrInsufficientStock, "product 1 (HP Laptop): requested 20, available 10"),
			code:    http.StatusBadRequest,
			message: "insufficient stock: product 1 (HP Laptop): requested 20, available 10",
		},
		{
			name:    "stock violation",
			err:     e.Wrap("op", e.ErrStockViolation),
			code:    http.StatusBadRequest,
			message: e.ErrStockViolation.Error(),
		},
		{
			name:    "storage",
			err:     e.Storage(errors.New("connection refused")),
			code:    http.StatusInternalServerError,
			message: "storage failure",
		},
		{
			name:    "unexpected",
			err:     errors.New("boom"),
			code:    http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t, nil)
			ts.sales.err = tt.err

			rec := ts.do(http.MethodPost, "/api/v1/sales", `{"items":[{"productId":1,"quantity":1}]}`, nil)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
		})
	}
}

func TestSubmitSaleMalformedBody(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	for _, body := range []string{`{"items":`, `{"items":[{"productId":1,"quantity":1.5}]}`, `[]`} {
		rec := ts.do(http.MethodPost, "/api/v1/sales", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Nil(t, ts.sales.lastReq)
}

func TestListRecentSalesLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	name := "Nazim"
	ts.sales.sale = &domain.Sale{
		ID:           7,
		CustomerName: &name,
		TotalAmount:  1500_00,
		Status:       domain.SaleStatusPaid,
		Items:        []domain.SaleItem{{ID: 1, SaleID: 7, ProductID: 1, ProductName: "HP Laptop", Quantity: 3, UnitPrice: 500_00}},
	}

	rec := ts.do(http.MethodGet, "/api/v1/sales", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, ts.sales.lastLimit)

	var sales []SaleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, json.Number("1500"), sales[0].Items[0].LineTotal)
	assert.Equal(t, "HP Laptop", sales[0].Items[0].ProductName)

	rec = ts.do(http.MethodGet, "/api/v1/sales?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.sales.lastLimit)

	rec = ts.do(http.MethodGet, "/api/v1/sales?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSaleAndReceiptNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.sales.err = e.ErrSaleNotFound

	rec := ts.do(http.MethodGet, "/api/v1/sales/12", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.sales.err = e.ErrReceiptNotFound
	rec = ts.do(http.MethodGet, "/api/v1/sales/12/receipt", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/sales/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReceiptPassesThroughDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.sales.receipt = []byte(`{"saleId":12,"total":"1500.00"}`)

	rec := ts.do(http.MethodGet, "/api/v1/sales/12/receipt", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"saleId":12,"total":"1500.00"}`, rec.Body.String())
}

func TestCreateProductParsesPrices(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.prods.product = &domain.Product{ID: 3, Name: "Dell Wireless Keyboard", BuyingPrice: 900_00, SellingPrice: 1499_99, Stock: 2, LowStockThreshold: 5}

	rec := ts.do(http.MethodPost, "/api/v1/products",
		`{"name":"Dell Wireless Keyboard","category":"Accessories","buyingPrice":900,"sellingPrice":1499.99,"stock":2}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, ts.prods.lastReq)
	assert.Equal(t, int64(900_00), ts.prods.lastReq.BuyingPrice)
	assert.Equal(t, int64(1499_99), ts.prods.lastReq.SellingPrice)
	assert.Nil(t, ts.prods.lastReq.LowStockThreshold)

	var res ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, json.Number("1499.99"), res.SellingPrice)
	assert.True(t, res.LowStock)
}

func TestCreateProductRejectsBadPrices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "three decimals", body: `{"name":"x","buyingPrice":1.999,"sellingPrice":2}`, message: "invalid request: buyingPrice must have at most 2 decimal places"},
		{name: "negative", body: `{"name":"x","buyingPrice":1,"sellingPrice":-2}`, message: "invalid request: sellingPrice must not be negative"},
		{name: "missing", body: `{"name":"x","sellingPrice":2}`, message: "invalid request: buyingPrice is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t, nil)
			rec := ts.do(http.MethodPost, "/api/v1/products", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
			assert.Nil(t, ts.prods.lastReq)
		})
	}
}

func TestGetProductNotFoundIs404(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.prods.err = e.Wrap("ProductUseCase.GetProduct", e.ErrProductNotFound)

	rec := ts.do(http.MethodGet, "/api/v1/products/999", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", decodeError(t, rec))
}

func TestDashboardAndSalesSummary(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.reports.dashboard = &usecase.DashboardSummary{TotalProducts: 2, LowStockItems: 1, TotalRevenue: 1829_00, TotalProfit: 6_00}
	ts.reports.sales = &usecase.SalesSummary{RevenueToday: 1500_00, RevenueWeek: 2500_00, OrdersToday: 1, OrdersWeek: 2, AverageOrderValue: 1250_00}

	rec := ts.do(http.MethodGet, "/api/v1/dashboard/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalProducts":2,"lowStockItems":1,"totalRevenue":1829,"totalProfit":6}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/v1/sales/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"revenueToday":1500,"revenueWeek":2500,"ordersToday":1,"ordersWeek":2,"averageOrderValue":1250}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := newTestServer(t, nil).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = newTestServer(t, errors.New("dial tcp: connection refused")).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsUseRoutePattern(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.sales.err = e.ErrSaleNotFound
	ts.do(http.MethodGet, "/api/v1/sales/1", "", nil)
	ts.do(http.MethodGet, "/api/v1/sales/2", "", nil)

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_api_http_requests_total{handler="/api/v1/sales/{id}",method="GET",status="404"} 2`)
}

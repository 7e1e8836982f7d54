package usecase

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
)

// fakeStore — состояние БД в памяти. Транзакция сериализуется через txMu,
// при ошибке состояние восстанавливается из снимка.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[int64]domain.Product
	sales    map[int64]domain.Sale
	keys     map[string]int64
	outbox   []*OutboxEvent
	nextID   int64
}

func newFakeStore(products ...domain.Product) *fakeStore {
	s := &fakeStore{
		products: make(map[int64]domain.Product),
		sales:    make(map[int64]domain.Sale),
		keys:     make(map[string]int64),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	return s
}

func (s *fakeStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	products := maps.Clone(s.products)
	sales := maps.Clone(s.sales)
	keys := maps.Clone(s.keys)
	outbox := append([]*OutboxEvent(nil), s.outbox...)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.products, s.sales, s.keys, s.outbox, s.nextID = products, sales, keys, outbox, nextID
		s.mu.Unlock()
		return err
	}

	return nil
}

func (s *fakeStore) stock(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *fakeStore) salesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *fakeStore) outboxLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

type fakeProductRepo struct {
	s *fakeStore
	// decrementErr подменяет результат списания, имитируя нарушение ограничения в БД
	decrementErr error
	// afterGet вызывается после чтения товара, до возврата результата
	afterGet func()
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	created := *p
	created.ID = r.s.nextID
	created.CreatedAt = time.Now()
	r.s.products[created.ID] = created

	return &created, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()

	p, ok := r.s.products[id]
	r.s.mu.Unlock()
	if !ok {
		return nil, e.ErrProductNotFound
	}
	if r.afterGet != nil {
		r.afterGet()
	}

	return &p, nil
}

func (r *fakeProductRepo) List(context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		res = append(res, p)
	}

	return res, nil
}

func (r *fakeProductRepo) GetForUpdate(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			res[id] = &p
		}
	}

	return res, nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, id, quantity int64) (int64, error) {
	if r.decrementErr != nil {
		return 0, r.decrementErr
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.s.products[id]
	if p.Stock < quantity {
		return 0, e.WithDetail(e.ErrStockViolation, "product %d", id)
	}
	p.Stock -= quantity
	r.s.products[id] = p

	return p.Stock, nil
}

type fakeSaleRepo struct {
	s *fakeStore
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	created := *sale
	created.ID = r.s.nextID
	created.CreatedAt = time.Now().UTC()
	created.Items = make([]domain.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		r.s.nextID++
		item.ID = r.s.nextID
		item.SaleID = created.ID
		created.Items[i] = item
	}
	r.s.sales[created.ID] = created

	return &created, nil
}

func (r *fakeSaleRepo) ClaimIdempotencyKey(_ context.Context, key string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.keys[key]
	if !ok {
		return 0, e.ErrSaleNotFound
	}

	return id, nil
}

func (r *fakeSaleRepo) SaveIdempotencyKey(_ context.Context, key string, saleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.keys[key]; ok {
		return e.ErrIdempotencyRace
	}
	r.s.keys[key] = saleID

	return nil
}

func (r *fakeSaleRepo) GetSaleIDByIdempotencyKey(_ context.Context, key string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.keys[key]
	if !ok {
		return 0, e.ErrSaleNotFound
	}

	return id, nil
}

type fakeOutboxRepo struct {
	s   *fakeStore
	err error
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	if r.err != nil {
		return nil, r.err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outbox = append(r.s.outbox, event)
	return event, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (r *fakeOutboxRepo) MarkAsPending(context.Context, int64) error { return nil }

type fakeReportRepo struct {
	s *fakeStore

	dashboard      *DashboardSummary
	dashboardCalls int
	afterDashboard func()
	salesSummary   *SalesSummary
	dayStart       time.Time
	weekStart      time.Time
}

func (r *fakeReportRepo) GetDashboardSummary(context.Context) (*DashboardSummary, error) {
	r.dashboardCalls++
	summary := *r.dashboard
	if r.afterDashboard != nil {
		r.afterDashboard()
	}
	return &summary, nil
}

func (r *fakeReportRepo) GetSalesSummary(_ context.Context, dayStart, weekStart time.Time) (*SalesSummary, error) {
	r.dayStart, r.weekStart = dayStart, weekStart
	summary := *r.salesSummary
	return &summary, nil
}

func (r *fakeReportRepo) ListRecentSales(_ context.Context, limit int) ([]domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make([]domain.Sale, 0, limit)
	for _, sale := range r.s.sales {
		if len(res) == limit {
			break
		}
		res = append(res, sale)
	}

	return res, nil
}

func (r *fakeReportRepo) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sale, ok := r.s.sales[id]
	if !ok {
		return nil, e.ErrSaleNotFound
	}

	return &sale, nil
}

type fakeCache struct {
	mu sync.Mutex

	products       map[int64]domain.Product
	versions       map[int64]int64
	summary        *DashboardSummary
	summaryVersion int64
	evicted        []int64
	summaryEvicted int
	err            error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		products: make(map[int64]domain.Product),
		versions: make(map[int64]int64),
	}
}

func (c *fakeCache) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, e.ErrCacheMiss
	}

	return &p, nil
}

func (c *fakeCache) ProductVersion(_ context.Context, id int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return 0, c.err
	}

	return c.versions[id], nil
}

func (c *fakeCache) SetProduct(_ context.Context, p *domain.Product, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[p.ID] == version {
		c.products[p.ID] = *p
	}
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	for _, id := range ids {
		delete(c.products, id)
		c.versions[id]++
	}
	c.evicted = append(c.evicted, ids...)

	return nil
}

func (c *fakeCache) GetDashboardSummary(context.Context) (*DashboardSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if c.summary == nil {
		return nil, e.ErrCacheMiss
	}
	summary := *c.summary

	return &summary, nil
}

func (c *fakeCache) DashboardSummaryVersion(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return 0, c.err
	}

	return c.summaryVersion, nil
}

func (c *fakeCache) SetDashboardSummary(_ context.Context, summary *DashboardSummary, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summaryVersion == version {
		s := *summary
		c.summary = &s
	}
	return nil
}

func (c *fakeCache) DeleteDashboardSummary(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.summary = nil
	c.summaryVersion++
	c.summaryEvicted++

	return nil
}

func (c *fakeCache) cachedProduct(id int64) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	return p, ok
}

type fakeReceipts struct {
	mu       sync.Mutex
	archived []int64
}

func (f *fakeReceipts) Archive(sale *domain.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, sale.ID)
}

type fakeReceiptRepo struct {
	data map[int64][]byte
}

func (f *fakeReceiptRepo) Upload(_ context.Context, saleID int64, data []byte) error {
	f.data[saleID] = data
	return nil
}

func (f *fakeReceiptRepo) Get(_ context.Context, saleID int64) ([]byte, error) {
	data, ok := f.data[saleID]
	if !ok {
		return nil, e.ErrReceiptNotFound
	}
	return data, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	committed int
	replayed  int
	rejected  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{rejected: make(map[string]int)}
}

func (m *fakeMetrics) SaleCommitted(int64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed++
}

func (m *fakeMetrics) SaleRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *fakeMetrics) SaleReplayed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replayed++
}

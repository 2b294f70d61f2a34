package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"quickgrocery/internal/model"
	"quickgrocery/internal/notify"
	"quickgrocery/internal/repository"
)

// memStore is a CheckoutStore that runs one transaction at a time and only applies
// staged writes when the callback returns nil.
type memStore struct {
	mu        sync.Mutex
	products  map[string]model.Product
	orders    map[string]model.Order
	conflicts int
	txCount   int
}

func newMemStore(products ...model.Product) *memStore {
	m := &memStore{
		products: make(map[string]model.Product),
		orders:   make(map[string]model.Order),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.CheckoutTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{store: m, staged: make(map[string]model.Product)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, p := range tx.staged {
		m.products[id] = p
	}
	for _, o := range tx.created {
		m.orders[o.ID] = o
	}
	return nil
}

func (m *memStore) product(id string) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) allOrders() []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

type memTx struct {
	store   *memStore
	staged  map[string]model.Product
	created []model.Order
}

func (t *memTx) current(id string) (model.Product, bool) {
	if p, ok := t.staged[id]; ok {
		return p, true
	}
	p, ok := t.store.products[id]
	return p, ok
}

func (t *memTx) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := t.current(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) CreateOrder(_ context.Context, order *model.Order) error {
	cp := *order
	cp.Items = append([]model.OrderItem(nil), order.Items...)
	t.created = append(t.created, cp)
	return nil
}

func (t *memTx) DecrementStock(_ context.Context, id string, qty int) error {
	if t.store.conflicts > 0 {
		t.store.conflicts--
		return repository.ErrConflict
	}
	p, ok := t.current(id)
	if !ok || p.StockCount < qty {
		return repository.ErrConflict
	}
	p.SetStockCount(p.StockCount - qty)
	t.staged[id] = p
	return nil
}

// versionedStore lets transactions run concurrently on a snapshot and checks, at commit,
// that every product they read is still at the version they saw. A stale read fails the
// commit with ErrConflict, the way a snapshot-isolated document store aborts on a write
// conflict.
type versionedStore struct {
	mu        sync.Mutex
	products  map[string]model.Product
	versions  map[string]int
	orders    []model.Order
	txCount   int
	conflicts int

	// beforeCommit runs between the callback and the commit check, outside the lock.
	beforeCommit func(attempt int)
}

func newVersionedStore(products ...model.Product) *versionedStore {
	s := &versionedStore{
		products: make(map[string]model.Product),
		versions: make(map[string]int),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *versionedStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.CheckoutTx) error) error {
	s.mu.Lock()
	s.txCount++
	attempt := s.txCount
	tx := &versionedTx{
		snapshot: make(map[string]model.Product, len(s.products)),
		seen:     make(map[string]int, len(s.versions)),
		reads:    make(map[string]int),
		staged:   make(map[string]model.Product),
	}
	for id, p := range s.products {
		tx.snapshot[id] = p
		tx.seen[id] = s.versions[id]
	}
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		s.beforeCommit(attempt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range tx.reads {
		if s.versions[id] != v {
			s.conflicts++
			return repository.ErrConflict
		}
	}
	for id, p := range tx.staged {
		s.products[id] = p
		s.versions[id]++
	}
	s.orders = append(s.orders, tx.created...)
	return nil
}

// sell commits a purchase made outside the service, as another checkout would.
func (s *versionedStore) sell(id string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.SetStockCount(p.StockCount - qty)
	s.products[id] = p
	s.versions[id]++
}

func (s *versionedStore) product(id string) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *versionedStore) stats() (txCount, conflicts, orders int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount, s.conflicts, len(s.orders)
}

type versionedTx struct {
	snapshot map[string]model.Product
	seen     map[string]int
	reads    map[string]int
	staged   map[string]model.Product
	created  []model.Order
}

func (t *versionedTx) current(id string) (model.Product, bool) {
	if p, ok := t.staged[id]; ok {
		return p, true
	}
	p, ok := t.snapshot[id]
	return p, ok
}

func (t *versionedTx) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := t.current(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.reads[id] = t.seen[id]
	return &p, nil
}

func (t *versionedTx) CreateOrder(_ context.Context, order *model.Order) error {
	cp := *order
	cp.Items = append([]model.OrderItem(nil), order.Items...)
	t.created = append(t.created, cp)
	return nil
}

func (t *versionedTx) DecrementStock(_ context.Context, id string, qty int) error {
	p, ok := t.current(id)
	if !ok || p.StockCount < qty {
		return repository.ErrConflict
	}
	t.reads[id] = t.seen[id]
	p.SetStockCount(p.StockCount - qty)
	t.staged[id] = p
	return nil
}

type event struct {
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{eventType, payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// signalingNotifier wraps a Notifier and reports each call's result on done.
type signalingNotifier struct {
	next Notifier
	done chan error
}

func newSignalingNotifier(next Notifier) *signalingNotifier {
	return &signalingNotifier{next: next, done: make(chan error, 16)}
}

func (n *signalingNotifier) Notify(ctx context.Context, msg notify.OrderNotification) error {
	var err error
	if n.next != nil {
		err = n.next.Notify(ctx, msg)
	}
	n.done <- err
	return err
}

func (n *signalingNotifier) wait(timeout time.Duration) (called bool, err error) {
	select {
	case err := <-n.done:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) FindAll(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, id, from, to, at)
	return args.Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateCredentials(ctx context.Context, id, passwordHash, tokenVersion string) error {
	args := m.Called(ctx, id, passwordHash, tokenVersion)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) FindAll(ctx context.Context, category string) ([]model.Product, error) {
	args := m.Called(ctx, category)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*model.Product)
	return product, args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, id string, fn func(p *model.Product) error) (*model.Product, error) {
	args := m.Called(ctx, id, fn)
	product, _ := args.Get(0).(*model.Product)
	return product, args.Error(1)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) OrderSummary(ctx context.Context, since time.Time) (repository.OrderSummary, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(repository.OrderSummary), args.Error(1)
}

func (m *mockStatsRepo) StatusCounts(ctx context.Context) (map[model.OrderStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[model.OrderStatus]int64)
	return counts, args.Error(1)
}

func (m *mockStatsRepo) TopProducts(ctx context.Context, limit int) ([]repository.ProductSales, error) {
	args := m.Called(ctx, limit)
	top, _ := args.Get(0).([]repository.ProductSales)
	return top, args.Error(1)
}

func (m *mockStatsRepo) ProductCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStatsRepo) LowStockCount(ctx context.Context, threshold int) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStatsRepo) FrequentProducts(ctx context.Context, userID string, orders, limit int) ([]string, error) {
	args := m.Called(ctx, userID, orders, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

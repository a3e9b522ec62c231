package usecase

import (
	"context"
	"fmt"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
)

// In-memory backend shared by the mock repos. WithinTx snapshots the whole
// backend and restores it on error, mirroring the all-or-nothing contract of
// the real store.
type memBackend struct {
	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	coupons   map[string]*domain.Coupon // keyed by id
	orders    map[string]*domain.Order
	items     map[string][]domain.OrderItem
	outbox    []memEvent

	// simulates a concurrent checkout draining stock between catalog
	// validation and the conditional decrement
	drainOnDecrement map[string]int
}

type memEvent struct {
	channel string
	payload []byte
}

func newMemBackend() *memBackend {
	return &memBackend{
		customers: map[string]*domain.Customer{},
		products:  map[string]*domain.Product{},
		coupons:   map[string]*domain.Coupon{},
		orders:    map[string]*domain.Order{},
		items:     map[string][]domain.OrderItem{},
	}
}

func (b *memBackend) clone() *memBackend {
	nb := newMemBackend()
	for k, v := range b.customers {
		cp := *v
		nb.customers[k] = &cp
	}
	for k, v := range b.products {
		cp := *v
		nb.products[k] = &cp
	}
	for k, v := range b.coupons {
		cp := *v
		nb.coupons[k] = &cp
	}
	for k, v := range b.orders {
		cp := *v
		nb.orders[k] = &cp
	}
	for k, v := range b.items {
		nb.items[k] = append([]domain.OrderItem(nil), v...)
	}
	nb.outbox = append([]memEvent(nil), b.outbox...)
	return nb
}

func (b *memBackend) restore(snap *memBackend) {
	b.customers = snap.customers
	b.products = snap.products
	b.coupons = snap.coupons
	b.orders = snap.orders
	b.items = snap.items
	b.outbox = snap.outbox
}

type memCustomers struct{ b *memBackend }

func (r memCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := r.b.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r memCustomers) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.b.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memCustomers) FindByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	for _, c := range r.b.customers {
		if c.Phone != "" && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memCustomers) Create(_ context.Context, c *domain.Customer) error {
	cp := *c
	r.b.customers[c.ID] = &cp
	return nil
}

type memProducts struct{ b *memBackend }

func (r memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := r.b.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

type memCoupons struct{ b *memBackend }

func (r memCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	for _, c := range r.b.coupons {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

type memStore struct{ b *memBackend }

func (s memStore) WithinTx(_ context.Context, fn func(tx OrderTx) error) error {
	snap := s.b.clone()
	if err := fn(memTx{s.b}); err != nil {
		s.b.restore(snap)
		return err
	}
	return nil
}

func (s memStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := s.b.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (s memStore) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, o := range s.b.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memStore) ItemsForOrder(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	return append([]domain.OrderItem(nil), s.b.items[orderID]...), nil
}

type memTx struct{ b *memBackend }

func (t memTx) InsertOrder(_ context.Context, o *domain.Order) error {
	if _, ok := t.b.orders[o.ID]; ok {
		return fmt.Errorf("duplicate order id %s", o.ID)
	}
	cp := *o
	cp.Items = nil
	t.b.orders[o.ID] = &cp
	return nil
}

func (t memTx) InsertItems(_ context.Context, items []domain.OrderItem) error {
	for _, it := range items {
		t.b.items[it.OrderID] = append(t.b.items[it.OrderID], it)
	}
	return nil
}

func (t memTx) DecrementStock(_ context.Context, productID string, qty int) error {
	if drained, ok := t.b.drainOnDecrement[productID]; ok {
		t.b.products[productID].Stock = drained
		delete(t.b.drainOnDecrement, productID)
	}
	p, ok := t.b.products[productID]
	if !ok || p.Stock < qty {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	p.Stock -= qty
	return nil
}

func (t memTx) RestoreStock(_ context.Context, productID string, qty int) error {
	if p, ok := t.b.products[productID]; ok {
		p.Stock += qty
	}
	return nil
}

func (t memTx) IncrementCouponUsage(_ context.Context, couponID string) error {
	c, ok := t.b.coupons[couponID]
	if !ok {
		return fmt.Errorf("coupon %s not found", couponID)
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrCouponExhausted
	}
	c.UsedCount++
	return nil
}

func (t memTx) DecrementCouponUsage(_ context.Context, couponID string) error {
	if c, ok := t.b.coupons[couponID]; ok && c.UsedCount > 0 {
		c.UsedCount--
	}
	return nil
}

func (t memTx) GetOrderForUpdate(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := t.b.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (t memTx) ItemsForOrder(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	return append([]domain.OrderItem(nil), t.b.items[orderID]...), nil
}

func (t memTx) SettleIfPending(_ context.Context, orderID string, st domain.Status, ps domain.PaymentStatus) (bool, error) {
	o, ok := t.b.orders[orderID]
	if !ok || o.Status != domain.StatusPending {
		return false, nil
	}
	o.Status = st
	o.PaymentStatus = ps
	return true, nil
}

func (t memTx) CancelOrder(_ context.Context, orderID string, ps domain.PaymentStatus) error {
	o, ok := t.b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	o.Status = domain.StatusCancelled
	o.PaymentStatus = ps
	return nil
}

func (t memTx) InsertEvent(_ context.Context, channel string, payload []byte) error {
	t.b.outbox = append(t.b.outbox, memEvent{channel: channel, payload: payload})
	return nil
}

type memIdem struct {
	locks map[string]bool
	vals  map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, vals: map[string]string{}}
}

func (s *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *memIdem) Remember(_ context.Context, scope, key, value string) error {
	s.vals[scope+":"+key] = value
	return nil
}

func (s *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := s.vals[scope+":"+key]
	return v, ok, nil
}

type fakeGateway struct {
	url   string
	err   error
	calls int
}

func (g *fakeGateway) Initiate(_ context.Context, _ *domain.Order, _ string) (string, error) {
	g.calls++
	return g.url, g.err
}

type memCache struct{ m map[string]string }

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) SetStatus(_ context.Context, orderID, status string) error {
	c.m[orderID] = status
	return nil
}

func (c *memCache) GetStatus(_ context.Context, orderID string) (string, bool, error) {
	v, ok := c.m[orderID]
	return v, ok, nil
}

type memEvents struct {
	msgs []OrderStatusChangedMsg
	err  error
}

func (e *memEvents) PublishStatusChanged(_ context.Context, msg OrderStatusChangedMsg) error {
	if e.err != nil {
		return e.err
	}
	e.msgs = append(e.msgs, msg)
	return nil
}

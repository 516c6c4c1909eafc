// Package memory provides volatile in-process stores. Each process holds its
// own copy; nothing survives a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xenking/shiptrack/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is a map-backed order store. Reads and writes hand out
// copies so callers never alias stored records.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	now    func() time.Time
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]order.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores o under its id. Ids are freshly generated, so no collision
// check is made.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[o.ID] = *o
	return nil
}

// Save upserts o. Used for push-replica ingestion.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.Create(ctx, o)
}

func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepository) Update(_ context.Context, id string, p order.Patch) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	p.Apply(&o, r.now())
	r.orders[id] = o
	return &o, nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	delete(r.orders, id)
	return &o, nil
}

func (r *OrderRepository) List(_ context.Context) ([]order.Order, error) {
	return r.filter(func(order.Order) bool { return true }), nil
}

func (r *OrderRepository) ListByStatus(_ context.Context, s order.Status) ([]order.Order, error) {
	return r.filter(func(o order.Order) bool { return o.Status == s }), nil
}

func (r *OrderRepository) ListByEmail(_ context.Context, email string) ([]order.Order, error) {
	return r.filter(func(o order.Order) bool { return strings.EqualFold(o.Email, email) }), nil
}

// filter scans every stored order. Result order is unspecified.
func (r *OrderRepository) filter(match func(order.Order) bool) []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if match(o) {
			result = append(result, o)
		}
	}
	return result
}

package engine

import (
	"sort"

	"mbp_go/internal/domain"
)

// OrderStore maps order ids to the order as it was rested, so that a cancel
// can reverse exactly what the add aggregated.
type OrderStore struct {
	orders map[string]domain.Order
}

// NewOrderStore creates an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]domain.Order)}
}

// Add stores o under its id, silently replacing any previous order with that id.
func (s *OrderStore) Add(o domain.Order) {
	s.orders[o.ID] = o
}

// Get returns the order stored under id.
func (s *OrderStore) Get(id string) (domain.Order, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// Remove erases and returns the order stored under id. Unknown ids are a no-op.
func (s *OrderStore) Remove(id string) (domain.Order, bool) {
	o, ok := s.orders[id]
	if ok {
		delete(s.orders, id)
	}
	return o, ok
}

// Len returns the number of live orders.
func (s *OrderStore) Len() int { return len(s.orders) }

// Orders returns all live orders sorted by id.
func (s *OrderStore) Orders() []domain.Order {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Clear drops every order.
func (s *OrderStore) Clear() {
	clear(s.orders)
}

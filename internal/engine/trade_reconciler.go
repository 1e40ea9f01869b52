package engine

import (
	"sort"

	"mbp_go/internal/domain"
)

// TradeReconciler remembers trades until a fill confirms them.
// It is bookkeeping only: nothing here feeds back into the book.
type TradeReconciler struct {
	trades map[string]*domain.PendingTrade
}

// NewTradeReconciler creates an empty reconciler.
func NewTradeReconciler() *TradeReconciler {
	return &TradeReconciler{trades: make(map[string]*domain.PendingTrade)}
}

// Record registers a trade against o, replacing any earlier trade for the same id.
func (r *TradeReconciler) Record(o domain.Order) {
	r.trades[o.ID] = &domain.PendingTrade{Order: o}
}

// Confirm marks the trade for id as filled. It reports whether a trade was found.
func (r *TradeReconciler) Confirm(id string) bool {
	pt, ok := r.trades[id]
	if !ok {
		return false
	}
	pt.Confirmed = true
	return true
}

// Get returns the trade recorded for id.
func (r *TradeReconciler) Get(id string) (domain.PendingTrade, bool) {
	pt, ok := r.trades[id]
	if !ok {
		return domain.PendingTrade{}, false
	}
	return *pt, true
}

// Len returns the number of recorded trades, confirmed or not.
func (r *TradeReconciler) Len() int { return len(r.trades) }

// Unconfirmed lists trades still waiting for a fill, sorted by order id.
func (r *TradeReconciler) Unconfirmed() []domain.PendingTrade {
	var out []domain.PendingTrade
	for _, pt := range r.trades {
		if !pt.Confirmed {
			out = append(out, *pt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Order.ID < out[j].Order.ID
	})
	return out
}

// All returns every recorded trade, sorted by order id.
func (r *TradeReconciler) All() []domain.PendingTrade {
	out := make([]domain.PendingTrade, 0, len(r.trades))
	for _, pt := range r.trades {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Order.ID < out[j].Order.ID
	})
	return out
}

// Clear forgets every trade.
func (r *TradeReconciler) Clear() {
	clear(r.trades)
}

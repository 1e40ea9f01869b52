package engine

import "mbp_go/internal/domain"

// TopOfBookView is the fixed-width ladder materialized after every event.
// It is rebuilt from the indexes each time rather than patched.
type TopOfBookView struct {
	levels int
	bids   [domain.MaxDepth]domain.PriceLevel
	asks   [domain.MaxDepth]domain.PriceLevel
}

// NewTopOfBookView creates a view that keeps levels slots per side.
// levels is clamped to 1..domain.MaxDepth.
func NewTopOfBookView(levels int) *TopOfBookView {
	if levels < 1 || levels > domain.MaxDepth {
		levels = domain.MaxDepth
	}
	return &TopOfBookView{levels: levels}
}

// Levels returns the number of slots per side.
func (v *TopOfBookView) Levels() int { return v.levels }

// Refresh copies the best levels of each index and zero-pads the rest.
func (v *TopOfBookView) Refresh(bids, asks *PriceLevelIndex) {
	fill(v.bids[:v.levels], bids)
	fill(v.asks[:v.levels], asks)
}

func fill(dst []domain.PriceLevel, x *PriceLevelIndex) {
	n := x.Top(dst)
	for i := n; i < len(dst); i++ {
		dst[i] = domain.PriceLevel{}
	}
}

// Bids returns the bid slots, best first.
func (v *TopOfBookView) Bids() []domain.PriceLevel { return v.bids[:v.levels] }

// Asks returns the ask slots, best first.
func (v *TopOfBookView) Asks() []domain.PriceLevel { return v.asks[:v.levels] }

// CopyTo writes the ladder into s.
func (v *TopOfBookView) CopyTo(s *domain.BookSnapshot) {
	s.Levels = v.levels
	s.Bids = v.bids
	s.Asks = v.asks
}

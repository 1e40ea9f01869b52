package domain

import "github.com/shopspring/decimal"

// Order is a resting order as it was added to the book.
// Its economic fields never change while it rests.
type Order struct {
	ID    string          `json:"order_id"`
	Price decimal.Decimal `json:"price"`
	Size  int64           `json:"size"`
	Side  Side            `json:"side"`
}

// PriceLevel aggregates all live orders resting at one price.
// The zero value is the empty ladder slot.
type PriceLevel struct {
	Price     decimal.Decimal `json:"price"`
	TotalSize int64           `json:"size"`
	Count     int             `json:"count"`
}

// IsEmpty reports whether the level is the zero sentinel.
func (l PriceLevel) IsEmpty() bool {
	return l.Count == 0 && l.TotalSize == 0 && l.Price.IsZero()
}

// PendingTrade is a trade reported against an order that has not yet been
// confirmed by a matching fill.
type PendingTrade struct {
	Order     Order `json:"order"`
	Confirmed bool  `json:"confirmed"`
}

package domain

import "github.com/shopspring/decimal"

// MaxDepth is the widest ladder a snapshot can carry.
const MaxDepth = 10

// MBOEvent is one decoded market-by-order record.
// Passthrough fields keep their original text so that output rows reproduce them verbatim.
type MBOEvent struct {
	Line int // 1-based line number in the source file

	TsRecv    string
	TsEvent   string
	Action    Action
	Side      Side
	Price     decimal.Decimal
	Size      int64
	ChannelID string
	OrderID   string
	Flags     string
	TsInDelta string
	Sequence  string
	Symbol    string
}

// Order returns the order fields carried by the event.
func (e *MBOEvent) Order() Order {
	return Order{
		ID:    e.OrderID,
		Price: e.Price,
		Size:  e.Size,
		Side:  e.Side,
	}
}

// BookSnapshot is the state emitted after one event has been applied.
// Bids and Asks hold Levels slots each, best first; unused slots are zero.
type BookSnapshot struct {
	Event  MBOEvent
	Depth  int
	Levels int
	Bids   [MaxDepth]PriceLevel
	Asks   [MaxDepth]PriceLevel
}

package engine

import (
	"mbp_go/internal/domain"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

const btreeDegree = 32

// PriceLevelIndex keeps the live price levels of one book side ordered best first:
// bids by descending price, asks by ascending price.
// A level exists only while it has at least one live order.
type PriceLevelIndex struct {
	side domain.Side
	tree *btree.BTreeG[*domain.PriceLevel]
}

// NewPriceLevelIndex creates an empty index for the given side.
func NewPriceLevelIndex(side domain.Side) *PriceLevelIndex {
	less := func(a, b *domain.PriceLevel) bool { return a.Price.LessThan(b.Price) }
	if side == domain.SideBid {
		less = func(a, b *domain.PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	}
	return &PriceLevelIndex{
		side: side,
		tree: btree.NewG(btreeDegree, less),
	}
}

// Side returns the book side this index orders for.
func (x *PriceLevelIndex) Side() domain.Side { return x.side }

// Len returns the number of live levels.
func (x *PriceLevelIndex) Len() int { return x.tree.Len() }

// Upsert adds one order of the given size at price, creating the level if needed.
func (x *PriceLevelIndex) Upsert(price decimal.Decimal, size int64) {
	if lvl, ok := x.tree.Get(&domain.PriceLevel{Price: price}); ok {
		lvl.TotalSize += size
		lvl.Count++
		return
	}
	x.tree.ReplaceOrInsert(&domain.PriceLevel{Price: price, TotalSize: size, Count: 1})
}

// Release removes one order of the given size from the level at price.
// The level is evicted when its count reaches zero. Unknown prices are ignored.
func (x *PriceLevelIndex) Release(price decimal.Decimal, size int64) {
	lvl, ok := x.tree.Get(&domain.PriceLevel{Price: price})
	if !ok {
		return
	}
	lvl.TotalSize -= size
	lvl.Count--
	if lvl.Count <= 0 {
		x.tree.Delete(lvl)
	}
}

// Rank returns how many live levels are strictly better than price.
// 0 means price is, or would become, the best level.
func (x *PriceLevelIndex) Rank(price decimal.Decimal) int {
	n := 0
	x.tree.AscendLessThan(&domain.PriceLevel{Price: price}, func(*domain.PriceLevel) bool {
		n++
		return true
	})
	return n
}

// Level returns the aggregate at price, if a level exists there.
func (x *PriceLevelIndex) Level(price decimal.Decimal) (domain.PriceLevel, bool) {
	lvl, ok := x.tree.Get(&domain.PriceLevel{Price: price})
	if !ok {
		return domain.PriceLevel{}, false
	}
	return *lvl, true
}

// Top copies up to len(dst) best levels into dst and returns how many were copied.
func (x *PriceLevelIndex) Top(dst []domain.PriceLevel) int {
	n := 0
	if len(dst) == 0 {
		return 0
	}
	x.tree.Ascend(func(lvl *domain.PriceLevel) bool {
		dst[n] = *lvl
		n++
		return n < len(dst)
	})
	return n
}

// Walk visits every level best first until fn returns false.
func (x *PriceLevelIndex) Walk(fn func(domain.PriceLevel) bool) {
	x.tree.Ascend(func(lvl *domain.PriceLevel) bool {
		return fn(*lvl)
	})
}

// Clear drops every level.
func (x *PriceLevelIndex) Clear() {
	x.tree.Clear(false)
}

package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"mbp_go/internal/domain"
)

// Processor is the single-threaded MBO state machine. Each Apply mutates the
// book according to one event and materializes the resulting ladder.
// It is not safe for concurrent use; one book belongs to one goroutine.
type Processor struct {
	bids   *PriceLevelIndex
	asks   *PriceLevelIndex
	orders *OrderStore
	trades *TradeReconciler
	view   *TopOfBookView

	clearOnReset bool
	applied      uint64
}

// Option configures a Processor.
type Option func(*Processor)

// WithDepth sets the number of ladder levels per side (1..domain.MaxDepth).
func WithDepth(levels int) Option {
	return func(p *Processor) { p.view = NewTopOfBookView(levels) }
}

// WithClearOnReset makes a Reset event drop all resting liquidity.
// Off by default: a Reset then leaves the book untouched.
func WithClearOnReset(enabled bool) Option {
	return func(p *Processor) { p.clearOnReset = enabled }
}

// NewProcessor creates a processor with an empty book.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		bids:   NewPriceLevelIndex(domain.SideBid),
		asks:   NewPriceLevelIndex(domain.SideAsk),
		orders: NewOrderStore(),
		trades: NewTradeReconciler(),
		view:   NewTopOfBookView(domain.MaxDepth),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply processes one event and returns the snapshot that follows it.
// Every event yields a snapshot, whether or not it changed the book.
func (p *Processor) Apply(ev *domain.MBOEvent) (domain.BookSnapshot, error) {
	depth, err := p.dispatch(ev)
	if err != nil {
		return domain.BookSnapshot{}, domain.NewRowError(ev.Line, "apply", err)
	}
	p.applied++

	p.view.Refresh(p.bids, p.asks)

	snap := domain.BookSnapshot{Event: *ev, Depth: depth}
	p.view.CopyTo(&snap)
	return snap, nil
}

func (p *Processor) dispatch(ev *domain.MBOEvent) (int, error) {
	switch ev.Action {
	case domain.ActionAdd:
		idx, err := p.restingIndex(ev)
		if err != nil {
			return 0, err
		}
		depth := idx.Rank(ev.Price)
		p.orders.Add(ev.Order())
		idx.Upsert(ev.Price, ev.Size)
		return depth, nil

	case domain.ActionCancel:
		idx, err := p.restingIndex(ev)
		if err != nil {
			return 0, err
		}
		depth := idx.Rank(ev.Price)
		// Reverse what the add aggregated, not what the cancel reports.
		if o, ok := p.orders.Remove(ev.OrderID); ok {
			p.index(o.Side).Release(o.Price, o.Size)
		}
		return depth, nil

	case domain.ActionTrade:
		if !ev.Side.Resting() {
			return 0, nil
		}
		p.trades.Record(ev.Order())
		return p.index(ev.Side).Rank(ev.Price), nil

	case domain.ActionFill:
		p.trades.Confirm(ev.OrderID)
		if !ev.Side.Resting() {
			return 0, nil
		}
		return p.index(ev.Side).Rank(ev.Price), nil

	case domain.ActionReset:
		if p.clearOnReset {
			p.Reset()
		}
		return 0, nil
	}
	// Modify, None and any other letter: passthrough row.
	return 0, nil
}

func (p *Processor) restingIndex(ev *domain.MBOEvent) (*PriceLevelIndex, error) {
	if !ev.Side.Resting() {
		return nil, fmt.Errorf("%w: %s with side %q", domain.ErrInvalidSide, ev.Action, ev.Side)
	}
	return p.index(ev.Side), nil
}

func (p *Processor) index(side domain.Side) *PriceLevelIndex {
	if side == domain.SideBid {
		return p.bids
	}
	return p.asks
}

// Reset drops all orders, levels and pending trades.
func (p *Processor) Reset() {
	p.bids.Clear()
	p.asks.Clear()
	p.orders.Clear()
	p.trades.Clear()
}

// Bids returns the bid index.
func (p *Processor) Bids() *PriceLevelIndex { return p.bids }

// Asks returns the ask index.
func (p *Processor) Asks() *PriceLevelIndex { return p.asks }

// Orders returns the order store.
func (p *Processor) Orders() *OrderStore { return p.orders }

// Trades returns the trade reconciler.
func (p *Processor) Trades() *TradeReconciler { return p.trades }

// Applied returns the number of events applied so far.
func (p *Processor) Applied() uint64 { return p.applied }

// Verify recomputes every level from the live orders and compares it with both indexes.
func (p *Processor) Verify() error {
	type agg struct {
		size  int64
		count int
	}
	want := map[domain.Side]map[string]agg{
		domain.SideBid: {},
		domain.SideAsk: {},
	}
	for _, o := range p.orders.Orders() {
		key := o.Price.String()
		a := want[o.Side][key]
		a.size += o.Size
		a.count++
		want[o.Side][key] = a
	}

	for _, idx := range []*PriceLevelIndex{p.bids, p.asks} {
		expected := want[idx.Side()]
		if idx.Len() != len(expected) {
			return fmt.Errorf("side %s: %d levels, want %d", idx.Side(), idx.Len(), len(expected))
		}
		var err error
		idx.Walk(func(lvl domain.PriceLevel) bool {
			a, ok := expected[lvl.Price.String()]
			switch {
			case lvl.Count <= 0:
				err = fmt.Errorf("side %s: empty level at %s", idx.Side(), lvl.Price)
			case !ok:
				err = fmt.Errorf("side %s: level %s has no orders", idx.Side(), lvl.Price)
			case a.size != lvl.TotalSize || a.count != lvl.Count:
				err = fmt.Errorf("side %s: level %s = {%d,%d}, want {%d,%d}",
					idx.Side(), lvl.Price, lvl.TotalSize, lvl.Count, a.size, a.count)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DumpState writes the entire book to a file (for post-mortem).
func (p *Processor) DumpState(filename string) error {
	slog.Info("Dumping book state...", slog.String("file", filename))

	collect := func(idx *PriceLevelIndex) []domain.PriceLevel {
		levels := make([]domain.PriceLevel, 0, idx.Len())
		idx.Walk(func(lvl domain.PriceLevel) bool {
			levels = append(levels, lvl)
			return true
		})
		return levels
	}

	data := struct {
		Applied uint64                `json:"applied"`
		Bids    []domain.PriceLevel   `json:"bids"`
		Asks    []domain.PriceLevel   `json:"asks"`
		Orders  []domain.Order        `json:"orders"`
		Trades  []domain.PendingTrade `json:"trades"`
	}{
		Applied: p.applied,
		Bids:    collect(p.bids),
		Asks:    collect(p.asks),
		Orders:  p.orders.Orders(),
		Trades:  p.trades.All(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		return fmt.Errorf("write state dump: %w", err)
	}
	return nil
}

package engine

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"mbp_go/internal/domain"

	"github.com/shopspring/decimal"
)

func mbo(action domain.Action, side domain.Side, price string, size int64, id string) *domain.MBOEvent {
	ev := &domain.MBOEvent{Action: action, Side: side, Size: size, OrderID: id, Symbol: "ARL"}
	if price != "" {
		ev.Price = px(price)
	}
	return ev
}

func mustApply(t *testing.T, p *Processor, ev *domain.MBOEvent) domain.BookSnapshot {
	t.Helper()
	snap, err := p.Apply(ev)
	if err != nil {
		t.Fatalf("Apply(%s %s %s) failed: %v", ev.Action, ev.Side, ev.OrderID, err)
	}
	return snap
}

func TestProcessor_AddSingleBid(t *testing.T) {
	p := NewProcessor()

	snap := mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100.00", 10, "o1"))

	if snap.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", snap.Depth)
	}
	if snap.Levels != domain.MaxDepth {
		t.Errorf("Expected %d levels, got %d", domain.MaxDepth, snap.Levels)
	}
	top := snap.Bids[0]
	if !top.Price.Equal(px("100")) || top.TotalSize != 10 || top.Count != 1 {
		t.Errorf("bid slot 0 = %+v", top)
	}
	for i := 1; i < domain.MaxDepth; i++ {
		if !snap.Bids[i].IsEmpty() {
			t.Errorf("bid slot %d should be empty", i)
		}
	}
	for i := 0; i < domain.MaxDepth; i++ {
		if !snap.Asks[i].IsEmpty() {
			t.Errorf("ask slot %d should be empty", i)
		}
	}
}

func TestProcessor_AddThenCancelAsk(t *testing.T) {
	p := NewProcessor()

	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "101.00", 5, "o2"))
	snap := mustApply(t, p, mbo(domain.ActionCancel, domain.SideAsk, "101.00", 5, "o2"))

	if !snap.Asks[0].IsEmpty() {
		t.Errorf("ask slot 0 should be empty after cancel, got %+v", snap.Asks[0])
	}
	if p.Asks().Len() != 0 || p.Orders().Len() != 0 {
		t.Error("book should be empty after cancel")
	}
}

func TestProcessor_DepthBeforeInsert(t *testing.T) {
	p := NewProcessor()

	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100.00", 1, "o1"))
	snap := mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "99.50", 1, "o2"))

	if snap.Depth != 1 {
		t.Errorf("Expected depth 1, got %d", snap.Depth)
	}
	if !snap.Bids[0].Price.Equal(px("100")) || !snap.Bids[1].Price.Equal(px("99.5")) {
		t.Errorf("unexpected bid ladder: %s, %s", snap.Bids[0].Price, snap.Bids[1].Price)
	}
}

func TestProcessor_ResetKeepsBook(t *testing.T) {
	p := NewProcessor()

	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	before := mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "101", 3, "o2"))
	after := mustApply(t, p, mbo(domain.ActionReset, domain.SideNone, "", 0, "0"))

	if after.Depth != 0 {
		t.Errorf("Expected depth 0 on reset, got %d", after.Depth)
	}
	if after.Bids != before.Bids || after.Asks != before.Asks {
		t.Error("reset should leave the ladder unchanged")
	}
	if p.Orders().Len() != 2 {
		t.Errorf("reset should keep orders, got %d", p.Orders().Len())
	}
}

func TestProcessor_ResetClearsBookWhenEnabled(t *testing.T) {
	p := NewProcessor(WithClearOnReset(true))

	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	mustApply(t, p, mbo(domain.ActionTrade, domain.SideBid, "100", 1, "o1"))
	snap := mustApply(t, p, mbo(domain.ActionReset, domain.SideNone, "", 0, "0"))

	if !snap.Bids[0].IsEmpty() {
		t.Errorf("bid slot 0 should be empty after clearing reset, got %+v", snap.Bids[0])
	}
	if p.Orders().Len() != 0 || p.Trades().Len() != 0 {
		t.Error("clearing reset should drop orders and trades")
	}
}

func TestProcessor_TradeThenFill(t *testing.T) {
	p := NewProcessor()

	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "101", 4, "o2"))

	trade := mustApply(t, p, mbo(domain.ActionTrade, domain.SideBid, "100", 2, "o1"))
	fill := mustApply(t, p, mbo(domain.ActionFill, domain.SideBid, "100", 2, "o1"))

	if trade.Bids != fill.Bids || trade.Asks != fill.Asks {
		t.Error("trade and fill must not change the book")
	}
	if trade.Depth != 1 || fill.Depth != 1 {
		t.Errorf("Expected depth 1 for both, got %d and %d", trade.Depth, fill.Depth)
	}
	if fill.Event.Size != 2 || !fill.Event.Price.Equal(px("100")) {
		t.Errorf("fill snapshot should carry its own price/size, got %s/%d", fill.Event.Price, fill.Event.Size)
	}
	if lvl, _ := p.Bids().Level(px("100")); lvl.TotalSize != 10 {
		t.Errorf("trade must not resize the level, got %d", lvl.TotalSize)
	}

	pt, ok := p.Trades().Get("o1")
	if !ok || !pt.Confirmed {
		t.Errorf("trade o1 should be confirmed, got %+v", pt)
	}
}

func TestProcessor_TradeWithoutSide(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "101", 4, "o1"))

	snap := mustApply(t, p, mbo(domain.ActionTrade, domain.SideNone, "105", 1, "0"))

	if snap.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", snap.Depth)
	}
	if p.Trades().Len() != 0 {
		t.Error("side N trades should not be recorded")
	}
}

func TestProcessor_CancelUsesStoredOrder(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 3, "o2"))

	// Cancel reports a different size; the stored one must be released.
	mustApply(t, p, mbo(domain.ActionCancel, domain.SideBid, "100", 1, "o1"))

	lvl, ok := p.Bids().Level(px("100"))
	if !ok || lvl.TotalSize != 3 || lvl.Count != 1 {
		t.Errorf("Expected {3,1}, got %+v", lvl)
	}
}

func TestProcessor_CancelUnknownIsIdempotent(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "101", 5, "o2"))

	first := mustApply(t, p, mbo(domain.ActionCancel, domain.SideAsk, "101", 5, "o2"))
	second := mustApply(t, p, mbo(domain.ActionCancel, domain.SideAsk, "101", 5, "o2"))

	if first.Bids != second.Bids || first.Asks != second.Asks {
		t.Error("repeating a cancel must not change the book")
	}
	if err := p.Verify(); err != nil {
		t.Error(err)
	}
}

func TestProcessor_RejectsAddWithoutSide(t *testing.T) {
	p := NewProcessor()

	for _, action := range []domain.Action{domain.ActionAdd, domain.ActionCancel} {
		for _, side := range []domain.Side{domain.SideNone, domain.SideUnset} {
			ev := mbo(action, side, "100", 1, "o1")
			ev.Line = 7
			_, err := p.Apply(ev)
			if !errors.Is(err, domain.ErrInvalidSide) {
				t.Errorf("%s with side %q: error = %v, want ErrInvalidSide", action, side, err)
			}
			if !domain.IsSkippable(err) {
				t.Errorf("%s with side %q should be a row error", action, side)
			}
		}
	}
	if p.Applied() != 0 {
		t.Errorf("rejected events should not count as applied, got %d", p.Applied())
	}
}

func TestProcessor_UnknownActionPassesThrough(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "10", 5, "o1"))
	before := mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "11", 5, "o2"))

	for _, action := range []domain.Action{domain.ActionNone, domain.ActionModify, domain.Action('X')} {
		snap := mustApply(t, p, mbo(action, domain.SideAsk, "12", 1, "o9"))
		if snap.Depth != 0 {
			t.Errorf("%s: expected depth 0, got %d", action, snap.Depth)
		}
		if snap.Asks != before.Asks || snap.Bids != before.Bids {
			t.Errorf("%s must not change the book", action)
		}
		if snap.Event.Action != action {
			t.Errorf("snapshot should keep action %s, got %s", action, snap.Event.Action)
		}
	}
	if p.Orders().Len() != 2 {
		t.Errorf("Expected 2 orders, got %d", p.Orders().Len())
	}
}

func TestProcessor_FillWithoutSide(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "10", 5, "o1"))
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideAsk, "11", 5, "o2"))
	mustApply(t, p, mbo(domain.ActionTrade, domain.SideAsk, "12", 1, "o3"))

	for _, side := range []domain.Side{domain.SideNone, domain.SideUnset} {
		snap := mustApply(t, p, mbo(domain.ActionFill, side, "12", 1, "o3"))
		if snap.Depth != 0 {
			t.Errorf("fill with side %q: expected depth 0, got %d", side, snap.Depth)
		}
	}
	if pt, ok := p.Trades().Get("o3"); !ok || !pt.Confirmed {
		t.Errorf("fill without side should still confirm the trade, got %+v", pt)
	}
}

func TestProcessor_ShallowLadder(t *testing.T) {
	p := NewProcessor(WithDepth(2))
	for i, price := range []string{"100", "99", "98"} {
		mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, price, 1, "o"+strconv.Itoa(i)))
	}
	snap := mustApply(t, p, mbo(domain.ActionModify, domain.SideBid, "98", 1, "o2"))

	if snap.Levels != 2 {
		t.Fatalf("Expected 2 levels, got %d", snap.Levels)
	}
	if !snap.Bids[1].Price.Equal(px("99")) || !snap.Bids[2].IsEmpty() {
		t.Errorf("unexpected shallow ladder: %+v", snap.Bids[:3])
	}
}

// Random adds and cancels must keep every level equal to the sum of its live orders.
func TestProcessor_RandomizedInvariants(t *testing.T) {
	p := NewProcessor()
	rng := rand.New(rand.NewSource(42))
	live := make([]string, 0, 256)
	nextID := 0

	for step := 0; step < 5000; step++ {
		var ev *domain.MBOEvent
		switch r := rng.Intn(10); {
		case r < 5 || len(live) == 0:
			side := domain.SideBid
			if rng.Intn(2) == 0 {
				side = domain.SideAsk
			}
			price := decimal.New(int64(9900+rng.Intn(40)*5), -2)
			id := strconv.Itoa(nextID)
			nextID++
			live = append(live, id)
			ev = &domain.MBOEvent{Action: domain.ActionAdd, Side: side, Price: price, Size: int64(1 + rng.Intn(500)), OrderID: id}
		case r < 8:
			i := rng.Intn(len(live))
			id := live[i]
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			o, _ := p.Orders().Get(id)
			ev = &domain.MBOEvent{Action: domain.ActionCancel, Side: o.Side, Price: o.Price, Size: o.Size, OrderID: id}
		case r < 9:
			ev = &domain.MBOEvent{Action: domain.ActionCancel, Side: domain.SideAsk, Price: px("1"), OrderID: "missing"}
		default:
			ev = &domain.MBOEvent{Action: domain.ActionTrade, Side: domain.SideBid, Price: px("99.5"), Size: 1, OrderID: "t"}
		}

		snap := mustApply(t, p, ev)
		if err := p.Verify(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		for i := 0; i < snap.Levels; i++ {
			for _, lvl := range []domain.PriceLevel{snap.Bids[i], snap.Asks[i]} {
				if !lvl.IsEmpty() && lvl.Count <= 0 {
					t.Fatalf("step %d: snapshot carries empty level %+v", step, lvl)
				}
			}
		}
	}
}

func TestProcessor_DumpState(t *testing.T) {
	p := NewProcessor()
	mustApply(t, p, mbo(domain.ActionAdd, domain.SideBid, "100", 10, "o1"))
	mustApply(t, p, mbo(domain.ActionTrade, domain.SideBid, "100", 1, "o1"))

	path := filepath.Join(t.TempDir(), "dump.json")
	if err := p.DumpState(path); err != nil {
		t.Fatalf("DumpState failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var dump struct {
		Applied uint64 `json:"applied"`
		Orders  []struct {
			ID   string `json:"order_id"`
			Side string `json:"side"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(b, &dump); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if dump.Applied != 2 || len(dump.Orders) != 1 || dump.Orders[0].Side != "B" {
		t.Errorf("unexpected dump: %+v", dump)
	}
}

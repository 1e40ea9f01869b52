package mbp

import (
	"fmt"
	"strconv"
	"strings"

	"mbp_go/internal/domain"

	"github.com/shopspring/decimal"
)

// recordConstants are the rtype, publisher_id and instrument_id columns of every MBP-10 row.
const recordConstants = "10,2,1108"

// FormatPrice renders a price with two decimals, then strips trailing zeros
// down to one fractional digit. Zero renders as the empty string.
func FormatPrice(p decimal.Decimal) string {
	if p.IsZero() {
		return ""
	}
	return string(appendPrice(nil, p))
}

func appendPrice(dst []byte, p decimal.Decimal) []byte {
	if p.IsZero() {
		return dst
	}
	s := p.StringFixed(2)
	for len(s) > 2 && s[len(s)-1] == '0' && s[len(s)-2] != '.' {
		s = s[:len(s)-1]
	}
	return append(dst, s...)
}

// Header returns the column header for a ladder of the given number of levels.
// The first column is unnamed; it holds the row index.
func Header(levels int) string {
	var b strings.Builder
	b.WriteString(",ts_recv,ts_event,rtype,publisher_id,instrument_id,action,side,depth,price,size,flags,ts_in_delta,sequence")
	for i := 0; i < levels; i++ {
		for _, col := range []string{"bid_px", "bid_sz", "bid_ct", "ask_px", "ask_sz", "ask_ct"} {
			fmt.Fprintf(&b, ",%s_%02d", col, i)
		}
	}
	b.WriteString(",symbol,order_id")
	return b.String()
}

// AppendRecord appends the output row for s, without the row index and line terminator.
func AppendRecord(dst []byte, s *domain.BookSnapshot) []byte {
	ev := &s.Event

	dst = append(dst, ev.TsRecv...)
	dst = append(dst, ',')
	dst = append(dst, ev.TsEvent...)
	dst = append(dst, ',')
	dst = append(dst, recordConstants...)
	dst = append(dst, ',')
	dst = append(dst, ev.Action.String()...)
	dst = append(dst, ',')
	dst = append(dst, ev.Side.String()...)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(s.Depth), 10)
	dst = append(dst, ',')

	if ev.Action == domain.ActionReset {
		dst = append(dst, ",0"...)
	} else {
		dst = appendPrice(dst, ev.Price)
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, ev.Size, 10)
	}
	dst = append(dst, ',')

	dst = append(dst, ev.Flags...)
	dst = append(dst, ',')
	dst = append(dst, ev.TsInDelta...)
	dst = append(dst, ',')
	dst = append(dst, ev.Sequence...)
	dst = append(dst, ',')

	dst = AppendLadder(dst, s)

	dst = append(dst, ',')
	dst = append(dst, ev.Symbol...)
	dst = append(dst, ',')
	dst = append(dst, ev.OrderID...)
	return dst
}

// AppendLadder appends the interleaved bid/ask cells of s, best level first.
func AppendLadder(dst []byte, s *domain.BookSnapshot) []byte {
	for i := 0; i < s.Levels; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendLevel(dst, s.Bids[i])
		dst = append(dst, ',')
		dst = appendLevel(dst, s.Asks[i])
	}
	return dst
}

func appendLevel(dst []byte, l domain.PriceLevel) []byte {
	dst = appendPrice(dst, l.Price)
	dst = append(dst, ',')
	dst = appendCount(dst, l.TotalSize)
	dst = append(dst, ',')
	return appendCount(dst, int64(l.Count))
}

func appendCount(dst []byte, n int64) []byte {
	if n <= 0 {
		return append(dst, '0')
	}
	return strconv.AppendInt(dst, n, 10)
}

// FormatRecord is AppendRecord for callers that want a string.
func FormatRecord(s *domain.BookSnapshot) string {
	return string(AppendRecord(nil, s))
}

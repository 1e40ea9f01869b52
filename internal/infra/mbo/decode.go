package mbo

import (
	"fmt"
	"strconv"

	"mbp_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Column positions of a Databento-style MBO CSV record.
const (
	colTsRecv = iota
	colTsEvent
	colRType
	colPublisherID
	colInstrumentID
	colAction
	colSide
	colPrice
	colSize
	colChannelID
	colOrderID
	colFlags
	colTsInDelta
	colSequence
	colSymbol

	// MinFields is the shortest row that is decoded; shorter rows are skipped.
	MinFields
)

// Decode fills ev from one CSV record. line is used for error context only.
// Empty price and size fields decode as zero.
func Decode(fields []string, line int, ev *domain.MBOEvent) error {
	if len(fields) < MinFields {
		return domain.NewRowError(line, "decode", fmt.Errorf("%w: %d < %d", domain.ErrShortRow, len(fields), MinFields))
	}

	action, err := domain.ParseAction(fields[colAction])
	if err != nil {
		return domain.NewRowError(line, "decode", err)
	}
	side, err := domain.ParseSide(fields[colSide])
	if err != nil {
		return domain.NewRowError(line, "decode", err)
	}
	if action.Mutating() && !side.Resting() {
		return domain.NewRowError(line, "decode", fmt.Errorf("%w: %s with side %q", domain.ErrInvalidSide, action, side))
	}

	price := decimal.Zero
	if s := fields[colPrice]; s != "" {
		if price, err = decimal.NewFromString(s); err != nil {
			return domain.NewRowError(line, "decode", fmt.Errorf("%w: %q", domain.ErrInvalidPrice, s))
		}
	}

	var size int64
	if s := fields[colSize]; s != "" {
		if size, err = strconv.ParseInt(s, 10, 64); err != nil {
			return domain.NewRowError(line, "decode", fmt.Errorf("%w: %q", domain.ErrInvalidSize, s))
		}
	}

	*ev = domain.MBOEvent{
		Line:      line,
		TsRecv:    fields[colTsRecv],
		TsEvent:   fields[colTsEvent],
		Action:    action,
		Side:      side,
		Price:     price,
		Size:      size,
		ChannelID: fields[colChannelID],
		OrderID:   fields[colOrderID],
		Flags:     fields[colFlags],
		TsInDelta: fields[colTsInDelta],
		Sequence:  fields[colSequence],
		Symbol:    fields[colSymbol],
	}
	return nil
}

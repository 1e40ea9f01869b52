package domain

import (
	"time"
)

// SnapshotRow is the tabular form of a BookSnapshot kept by the SQLite sink.
type SnapshotRow struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID     string    `gorm:"index:idx_run_row,priority:1" json:"run_id"`
	RowIndex  uint64    `gorm:"index:idx_run_row,priority:2" json:"row_index"`
	TsRecv    string    `json:"ts_recv"`
	TsEvent   string    `json:"ts_event"`
	Action    string    `json:"action"`
	Side      string    `json:"side"`
	Depth     int       `json:"depth"`
	Price     string    `json:"price"`
	Size      int64     `json:"size"`
	Flags     string    `json:"flags"`
	TsInDelta string    `json:"ts_in_delta"`
	Sequence  string    `json:"sequence"`
	BestBid   string    `json:"best_bid"`
	BestAsk   string    `json:"best_ask"`
	Ladder    string    `json:"ladder"` // interleaved bid/ask cells as in the CSV output
	Symbol    string    `gorm:"index" json:"symbol"`
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

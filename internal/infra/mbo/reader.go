package mbo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mbp_go/internal/domain"
)

// Reader streams MBO events out of a CSV file. The first line is a header and
// is never decoded. Rows with fewer than MinFields fields are skipped and counted.
type Reader struct {
	csv     *csv.Reader
	header  bool
	skipped uint64
}

// NewReader wraps r. The caller keeps ownership of r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	return &Reader{csv: cr}
}

// Next decodes the next usable row into ev. It returns io.EOF at the end of input
// and a *domain.RowError for rows that cannot be decoded.
func (r *Reader) Next(ev *domain.MBOEvent) error {
	for {
		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return domain.NewRowError(pe.Line, "decode", err)
			}
			return fmt.Errorf("read mbo: %w", err)
		}

		if !r.header {
			r.header = true
			continue
		}

		line, _ := r.csv.FieldPos(0)

		if len(fields) < MinFields {
			r.skipped++
			slog.Debug("Skipping short row", slog.Int("line", line), slog.Int("fields", len(fields)))
			continue
		}

		return Decode(fields, line, ev)
	}
}

// Skipped returns the number of short rows dropped so far.
func (r *Reader) Skipped() uint64 {
	return r.skipped
}

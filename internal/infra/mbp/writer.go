package mbp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"mbp_go/internal/domain"
)

const lineEnd = "\r\n"

// CSVSink writes MBP rows to a flat file: the header once, then one CRLF-terminated
// row per snapshot, each prefixed with its row index.
type CSVSink struct {
	w      *bufio.Writer
	closer io.Closer
	levels int
	buf    []byte
}

// NewCSVSink writes to w and emits the header immediately.
// If w is an io.Closer it is closed by Close.
func NewCSVSink(w io.Writer, levels int) (*CSVSink, error) {
	s := &CSVSink{
		w:      bufio.NewWriterSize(w, 64*1024),
		levels: levels,
		buf:    make([]byte, 0, 1024),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	if _, err := s.w.WriteString(Header(levels) + lineEnd); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return s, nil
}

// CreateCSVSink creates (or truncates) the file at path.
func CreateCSVSink(path string, levels int) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", domain.ErrOutputOpen, path, err)
	}
	s, err := NewCSVSink(f, levels)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Write emits the row for snap.
func (s *CSVSink) Write(index uint64, snap *domain.BookSnapshot) error {
	b := strconv.AppendUint(s.buf[:0], index, 10)
	b = append(b, ',')
	b = AppendRecord(b, snap)
	b = append(b, lineEnd...)
	s.buf = b

	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("write row %d: %w", index, err)
	}
	return nil
}

// Close flushes buffered rows and closes the underlying writer.
func (s *CSVSink) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

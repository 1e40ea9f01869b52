package domain

// EventSource yields decoded MBO events in input order.
type EventSource interface {
	// Next fills ev with the next usable record. It returns io.EOF when the input is exhausted.
	Next(ev *MBOEvent) error
	// Skipped returns the number of rows dropped for having too few fields.
	Skipped() uint64
}

// SnapshotSink receives one snapshot per processed event.
// The snapshot is only valid for the duration of the call.
type SnapshotSink interface {
	Write(index uint64, s *BookSnapshot) error
	Close() error
}

package event

import (
	"sync"

	"mbp_go/internal/domain"
)

// MBOEvent pool for the ingestion hotpath.
// One event is decoded, applied and written before the next is read,
// so the converter only ever holds a single record at a time.
//
// Usage:
//
//	ev := AcquireMBOEvent()
//	err := src.Next(ev)
//	// ... apply and emit ...
//	ReleaseMBOEvent(ev) // Return to pool after processing
var mboPool = sync.Pool{
	New: func() interface{} {
		return &domain.MBOEvent{}
	},
}

// AcquireMBOEvent gets an MBOEvent from the pool.
// The returned event has zero values and must be filled by a decoder.
func AcquireMBOEvent() *domain.MBOEvent {
	return mboPool.Get().(*domain.MBOEvent)
}

// ReleaseMBOEvent returns an MBOEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseMBOEvent(ev *domain.MBOEvent) {
	if ev == nil {
		return
	}
	*ev = domain.MBOEvent{}
	mboPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 64

	evs := make([]*domain.MBOEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireMBOEvent())
	}
	for _, ev := range evs {
		ReleaseMBOEvent(ev)
	}
}

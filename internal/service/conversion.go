package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"mbp_go/internal/domain"
	"mbp_go/internal/engine"
	"mbp_go/internal/event"
	"mbp_go/internal/infra"
)

// Stats summarizes one conversion run.
type Stats struct {
	Rows    uint64 // rows decoded or failed
	Skipped uint64 // short rows dropped by the source
	Failed  uint64 // rows dropped under the skip policy
	Emitted uint64 // snapshots written
}

// ConversionService drives the MBO -> MBP pipeline: read one event, apply it,
// hand the snapshot to every sink, then move on. It runs on a single goroutine.
type ConversionService struct {
	proc     *engine.Processor
	metrics  *infra.Metrics
	skipRows bool
	dumpPath string
	logger   *slog.Logger
}

// Option configures a ConversionService.
type Option func(*ConversionService)

// WithSkipPolicy makes row-level errors non-fatal: they are logged, counted and skipped.
func WithSkipPolicy(skip bool) Option {
	return func(s *ConversionService) { s.skipRows = skip }
}

// WithMetrics records run counters into m.
func WithMetrics(m *infra.Metrics) Option {
	return func(s *ConversionService) { s.metrics = m }
}

// WithPanicDump sets where the book is dumped if the engine panics.
func WithPanicDump(path string) Option {
	return func(s *ConversionService) { s.dumpPath = path }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *ConversionService) { s.logger = l }
}

// NewConversionService creates a service around proc.
func NewConversionService(proc *engine.Processor, opts ...Option) *ConversionService {
	s := &ConversionService{
		proc:    proc,
		metrics: &infra.Metrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes src until EOF, writing one snapshot per event to each sink.
// Sinks are not closed. Cancelling ctx stops the run between rows.
func (s *ConversionService) Run(ctx context.Context, src domain.EventSource, sinks ...domain.SnapshotSink) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.Uint64("row", stats.Rows))
			if s.dumpPath != "" {
				if derr := s.proc.DumpState(s.dumpPath); derr != nil {
					s.logger.Error("Failed to dump book state", slog.Any("error", derr))
				}
			}
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()
	defer func() {
		stats.Skipped = src.Skipped()
		s.metrics.RecordSkipped(stats.Skipped)
		s.metrics.SetBook(s.proc.Bids().Len(), s.proc.Asks().Len(), s.proc.Orders().Len())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ev := event.AcquireMBOEvent()
		done, err := s.step(src, ev, &stats, sinks)
		event.ReleaseMBOEvent(ev)

		if done {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
	}
}

func (s *ConversionService) step(src domain.EventSource, ev *domain.MBOEvent, stats *Stats, sinks []domain.SnapshotSink) (bool, error) {
	err := src.Next(ev)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err == nil || domain.IsSkippable(err) {
		stats.Rows++
		s.metrics.RecordRow()
	}
	if err == nil {
		err = s.emit(ev, stats, sinks)
	}
	if err == nil {
		return false, nil
	}

	if s.skipRows && domain.IsSkippable(err) {
		stats.Failed++
		s.metrics.RecordFailure()
		s.logger.Warn("Skipping bad row", slog.Any("error", err))
		return false, nil
	}
	return false, err
}

func (s *ConversionService) emit(ev *domain.MBOEvent, stats *Stats, sinks []domain.SnapshotSink) error {
	start := time.Now()
	snap, err := s.proc.Apply(ev)
	if err != nil {
		return err
	}
	s.metrics.RecordEvent(ev.Action.String(), time.Since(start))

	for _, sink := range sinks {
		if err := sink.Write(stats.Emitted, &snap); err != nil {
			return fmt.Errorf("emit row %d: %w", stats.Emitted, err)
		}
	}
	stats.Emitted++
	s.metrics.RecordEmitted()
	return nil
}

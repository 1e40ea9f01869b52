package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mbp_go/internal/domain"
	"mbp_go/internal/engine"
	"mbp_go/internal/event"
	"mbp_go/internal/infra"
	"mbp_go/internal/infra/mbp"
	"mbp_go/internal/infra/storage"
	"mbp_go/internal/service"

	"github.com/google/uuid"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Logger  *slog.Logger
	Metrics *infra.Metrics
	RunID   string

	closers []io.Closer
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and sets up logging and metrics.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger, logCloser := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.Logger = logger
	b.closers = append(b.closers, logCloser)

	b.Metrics = infra.NewMetrics()
	b.RunID = uuid.NewString()
	event.Warmup()

	logger.Info("Bootstrapping mbp converter",
		slog.String("run_id", b.RunID),
		slog.Int("depth", cfg.Engine.Depth),
		slog.String("on_row_error", cfg.Errors.OnRowError))
	return nil
}

// OpenSinks creates every configured output. Sinks are closed by the caller,
// in order, after the run.
func (b *Bootstrap) OpenSinks() ([]domain.SnapshotSink, error) {
	var sinks []domain.SnapshotSink

	if path := b.Config.Output.Path; path != "" {
		csvSink, err := mbp.CreateCSVSink(path, b.Config.Engine.Depth)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csvSink)
		b.Logger.Info("CSV output ready", slog.String("path", path))
	}

	if path := b.Config.Output.SQLitePath; path != "" {
		store, err := storage.NewStorage(path, b.RunID)
		if err != nil {
			CloseSinks(sinks)
			return nil, fmt.Errorf("%w %s: %v", domain.ErrOutputOpen, path, err)
		}
		sinks = append(sinks, store)
		b.Logger.Info("SQLite output ready", slog.String("path", path), slog.String("run_id", b.RunID))
	}

	return sinks, nil
}

// NewService wires a processor and a conversion service from the loaded config.
func (b *Bootstrap) NewService() *service.ConversionService {
	proc := engine.NewProcessor(
		engine.WithDepth(b.Config.Engine.Depth),
		engine.WithClearOnReset(b.Config.Engine.ClearOnReset),
	)
	return service.NewConversionService(proc,
		service.WithSkipPolicy(b.Config.Errors.OnRowError == infra.PolicySkip),
		service.WithMetrics(b.Metrics),
		service.WithPanicDump(b.Config.Engine.PanicDumpPath),
		service.WithLogger(b.Logger),
	)
}

// WriteMetrics exports the metrics textfile if one is configured.
func (b *Bootstrap) WriteMetrics() error {
	path := b.Config.Metrics.TextfilePath
	if path == "" {
		return nil
	}
	return b.Metrics.WriteTextfile(path)
}

// Close releases the log file.
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// CloseSinks closes every sink and reports the first failure.
func CloseSinks(sinks []domain.SnapshotSink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

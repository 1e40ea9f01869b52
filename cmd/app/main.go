package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mbp_go/internal/app"
	"mbp_go/internal/domain"
	"mbp_go/internal/infra/mbo"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] <mbo_input.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	inputPath := flag.Arg(0)

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		return 1
	}

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "bootstrapping failed: %v\n", err)
		return 1
	}
	defer bootstrap.Close()
	logger := bootstrap.Logger

	// 2. Input
	in, err := os.Open(inputPath)
	if err != nil {
		logger.Error("Failed to open input", slog.Any("error", fmt.Errorf("%w %s: %v", domain.ErrInputOpen, inputPath, err)))
		return 1
	}
	defer in.Close()

	// 3. Outputs
	sinks, err := bootstrap.OpenSinks()
	if err != nil {
		logger.Error("Failed to open output", slog.Any("error", err))
		return 1
	}

	// 4. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, runErr := bootstrap.NewService().Run(ctx, mbo.NewReader(in), sinks...)
	closeErr := app.CloseSinks(sinks)

	if err := bootstrap.WriteMetrics(); err != nil {
		logger.Warn("Failed to write metrics textfile", slog.Any("error", err))
	}

	logger.Info("Conversion finished",
		slog.String("input", inputPath),
		slog.Uint64("rows", stats.Rows),
		slog.Uint64("emitted", stats.Emitted),
		slog.Uint64("skipped", stats.Skipped),
		slog.Uint64("failed", stats.Failed),
		slog.Duration("elapsed", time.Since(start)))

	if runErr != nil {
		logger.Error("Conversion aborted", slog.Any("error", runErr))
		return 1
	}
	if closeErr != nil {
		logger.Error("Failed to finalize output", slog.Any("error", closeErr))
		return 1
	}
	return 0
}

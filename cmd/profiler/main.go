package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"medcli/internal/app"
	"medcli/internal/config"
	"medcli/internal/infrastructure"
)

func main() {
	input := flag.String("input", "", "admissions file (.csv, .xlsx, .xlsm) or a directory holding one (defaults to the configured data directory)")
	flag.Parse()

	os.Exit(run(*input))
}

// run returns the exit code instead of calling os.Exit so deferred
// cleanup still executes.
func run(input string) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to build profiler", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "profiler: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Profiling admissions input", slog.String("input", input))

	reportPath, err := a.ProfileInput(ctx, input)
	if err != nil {
		logger.Error("Profiling failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "profiler: %v\n", err)
		return 1
	}

	fmt.Printf("Quality report written to %s\n", reportPath)
	return 0
}

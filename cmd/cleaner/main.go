package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medcli/internal/app"
	"medcli/internal/config"
	"medcli/internal/infrastructure"
	"medcli/internal/operations"
)

// stageOrder fixes the printed step order; the response map has none.
var stageOrder = []string{
	operations.StageIDLoad,
	operations.StageIDDeduplicate,
	operations.StageIDNormalize,
	operations.StageIDDates,
	operations.StageIDNumeric,
	operations.StageIDImpute,
	operations.StageIDFeatures,
	operations.StageIDExport,
}

func main() {
	input := flag.String("input", "", "admissions file (.csv, .xlsx, .xlsm) or a directory holding one (defaults to the configured data directory)")
	step := flag.String("step", operations.StepFullPipeline, "run a single pipeline step by id: load, deduplicate, normalize, dates, numeric, impute, features, export")
	flag.Parse()

	os.Exit(run(*input, *step))
}

// run returns the exit code instead of calling os.Exit so deferred
// cleanup still executes.
func run(input, step string) int {
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
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "cleaner: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// Ctrl-C cancels between steps; completed step states survive in
	// the response.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting admissions cleaning run",
		slog.String("input", input),
		slog.String("step", step))

	resp, runErr := a.Run(ctx, app.RunOptions{InputPath: input, Step: step})
	if resp != nil {
		writeRunSummary(os.Stdout, resp, a.Paths().OutputDir)
	}
	if runErr != nil {
		logger.Error("Cleaning run failed", slog.String("error", runErr.Error()))
		fmt.Fprintf(os.Stderr, "cleaner: %v\n", runErr)
		return 1
	}

	return 0
}

// writeRunSummary prints one line per executed step and the artifact
// location when the run completed.
func writeRunSummary(w io.Writer, resp *operations.OperationResponse, outputDir string) {
	for _, id := range stageOrder {
		state, ok := resp.Steps[id]
		if !ok {
			continue
		}
		if state.Error != nil {
			fmt.Fprintf(w, "%-12s %s: %s\n", id, state.Status, state.Error)
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", id, state.Status)
	}

	if resp.Status == operations.OperationStatusCompleted {
		fmt.Fprintf(w, "Cleaning complete in %s\n", resp.Duration.Round(time.Millisecond))
		fmt.Fprintf(w, "Artifacts written to %s\n", outputDir)
	} else {
		fmt.Fprintf(w, "Cleaning %s after %s\n", resp.Status, resp.Duration.Round(time.Millisecond))
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"medcli/internal/config"
	"medcli/internal/dataprocessing"
	"medcli/internal/exporter"
	"medcli/internal/files"
	"medcli/internal/infrastructure"
	"medcli/internal/metrics"
	"medcli/internal/operations"
	"medcli/internal/validation"
)

// App wires configuration, tracing, metrics and the pipeline steps into one
// runnable container. One App executes one batch run.
type App struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	tracing   *infrastructure.Tracing
	collector *metrics.Collector
	manager   *operations.Manager
	discovery *files.Discovery
	loader    *dataprocessing.Loader
	profiler  *dataprocessing.Profiler
}

// RunOptions selects what a run processes.
type RunOptions struct {
	// InputPath names the admissions file to clean, or a directory whose
	// newest admissions file is taken. Empty means the configured data
	// directory.
	InputPath string

	// Step restricts the run to a single pipeline step by ID. Empty or
	// "full_pipeline" runs everything.
	Step string
}

// New builds the application container with dependency injection. The
// logger should be the process-global logger from
// infrastructure.InitializeLogger; nil falls back to it.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	tracing, err := infrastructure.InitTracing(&infrastructure.TracingConfig{
		ServiceName:    config.AppName,
		ServiceVersion: config.AppVersion,
		Enabled:        cfg.Observability.TracingEnabled,
		OutputPath:     paths.TraceFile,
		PrettyPrint:    true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}

	collector := metrics.NewCollector(config.AppVersion)

	recordValidator, err := validation.NewRecordValidator(logger)
	if err != nil {
		return nil, fmt.Errorf("build record validator: %w", err)
	}

	loader := dataprocessing.NewLoader(logger, collector)

	manager := operations.NewManager(
		operations.NewRegistry(),
		logger,
		operations.NewOperationTracer(tracing),
		collector,
	)

	steps := []operations.Step{
		operations.NewLoadStage(loader, validation.NewFileValidator(logger), logger),
		operations.NewDeduplicateStage(dataprocessing.NewDeduplicator(logger, collector), logger),
		operations.NewNormalizeStage(dataprocessing.NewNormalizer(logger, collector), logger),
		operations.NewDatesStage(dataprocessing.NewDateRepairer(logger, collector), logger),
		operations.NewNumericStage(dataprocessing.NewNumericSanitizer(logger, collector, cfg.Pipeline), logger),
		operations.NewImputeStage(dataprocessing.NewImputer(logger, collector), logger),
		operations.NewFeaturesStage(dataprocessing.NewFeatureEngineer(logger), logger),
		operations.NewExportStage(
			exporter.NewRecordExporter(paths, logger, collector, cfg.Pipeline.EmitBOM),
			dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{}),
			recordValidator,
			paths,
			logger,
		),
	}
	for _, step := range steps {
		if err := manager.RegisterStage(step); err != nil {
			return nil, fmt.Errorf("register step %s: %w", step.ID(), err)
		}
	}

	return &App{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		tracing:   tracing,
		collector: collector,
		manager:   manager,
		discovery: files.NewDiscovery(logger),
		loader:    loader,
		profiler:  dataprocessing.NewProfiler(logger),
	}, nil
}

// Run executes the cleaning pipeline once and writes the metrics textfile.
// The returned response carries per-step states even when the run failed.
func (a *App) Run(ctx context.Context, opts RunOptions) (*operations.OperationResponse, error) {
	input := opts.InputPath
	if input == "" {
		input = a.paths.DataDir
	}
	resolved, err := a.discovery.ResolveInput(input)
	if err != nil {
		return nil, err
	}

	// One ID serves as operation ID and log trace ID so the run's log
	// lines, spans and response correlate.
	runID := uuid.New().String()
	ctx = infrastructure.WithTraceID(ctx, runID)

	req := operations.OperationRequest{ID: runID, InputPath: resolved}
	if opts.Step != "" && opts.Step != operations.StepFullPipeline {
		req.Parameters = map[string]interface{}{operations.ContextKeyStep: opts.Step}
	}

	resp, runErr := a.manager.Execute(ctx, req)

	if a.cfg.Observability.MetricsEnabled {
		if err := a.collector.WriteTextfile(a.paths.MetricsFile); err != nil {
			a.logger.ErrorContext(ctx, "failed to write metrics textfile",
				slog.String("path", a.paths.MetricsFile),
				slog.String("error", err.Error()))
			if runErr == nil {
				runErr = fmt.Errorf("write metrics textfile %s: %w", a.paths.MetricsFile, err)
			}
		} else {
			a.logger.InfoContext(ctx, "metrics textfile written",
				slog.String("path", a.paths.MetricsFile))
		}
	}

	return resp, runErr
}

// ProfileInput loads an admissions file read-only and writes the column
// quality report. Nothing is mutated; raw and cleaned files both work.
func (a *App) ProfileInput(ctx context.Context, inputPath string) (string, error) {
	input := inputPath
	if input == "" {
		input = a.paths.DataDir
	}
	resolved, err := a.discovery.ResolveInput(input)
	if err != nil {
		return "", err
	}

	ctx = infrastructure.WithTraceID(ctx, uuid.New().String())

	result, err := a.loader.Load(ctx, resolved)
	if err != nil {
		return "", err
	}

	profiles := a.profiler.Profile(ctx, result.Records)
	if err := a.profiler.WriteReport(ctx, a.paths.QualityReport, profiles, len(result.Records)); err != nil {
		return "", err
	}

	return a.paths.QualityReport, nil
}

// Paths exposes the resolved artifact locations.
func (a *App) Paths() *config.Paths {
	return a.paths
}

// Shutdown flushes pending trace spans. Call once the run is over.
func (a *App) Shutdown(ctx context.Context) error {
	return a.tracing.Shutdown(ctx)
}

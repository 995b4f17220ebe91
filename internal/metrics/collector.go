// Package metrics collects run counters for the cleaning pipeline and writes
// them to a Prometheus textfile at the end of the run. The textfile format
// lets a node_exporter textfile collector pick the numbers up without the
// process having to outlive the batch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medcli"

// Collector aggregates pipeline counters on a dedicated registry so test
// runs never collide with the default global registry.
type Collector struct {
	registry *prometheus.Registry

	rowsLoaded        prometheus.Counter
	rowsWritten       *prometheus.CounterVec
	coercionWarnings  *prometheus.CounterVec
	duplicatesRemoved prometheus.Counter
	datesSwapped      prometheus.Counter
	negativesFlipped  prometheus.Counter
	rangeViolations   *prometheus.CounterVec
	valuesImputed     *prometheus.CounterVec
	stageDuration     *prometheus.GaugeVec
	runDuration       prometheus.Gauge
	runSuccess        prometheus.Gauge
	runInfo           *prometheus.GaugeVec
}

// NewCollector creates a Collector with all pipeline metrics registered.
func NewCollector(version string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		rowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Number of raw rows parsed from the input file.",
		}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Number of rows written per output artifact.",
		}, []string{"output"}),
		coercionWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coercion_warnings_total",
			Help:      "Cell values that could not be coerced and became missing.",
		}, []string{"column"}),
		duplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Exact duplicate rows dropped by the deduplicator.",
		}),
		datesSwapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_swapped_total",
			Help:      "Admission/discharge pairs swapped to restore order.",
		}),
		negativesFlipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negative_billing_flipped_total",
			Help:      "Negative billing amounts replaced by their absolute value.",
		}),
		rangeViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "range_violations_total",
			Help:      "Values outside plausible bounds that became missing.",
		}, []string{"column"}),
		valuesImputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_imputed_total",
			Help:      "Missing values filled by the imputer.",
		}, []string{"column", "strategy"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
		}, []string{"stage"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the whole run.",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the run completed, 0 if it aborted.",
		}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Static run metadata carried as labels.",
		}, []string{"version"}),
	}

	registry.MustRegister(
		c.rowsLoaded,
		c.rowsWritten,
		c.coercionWarnings,
		c.duplicatesRemoved,
		c.datesSwapped,
		c.negativesFlipped,
		c.rangeViolations,
		c.valuesImputed,
		c.stageDuration,
		c.runDuration,
		c.runSuccess,
		c.runInfo,
	)

	c.runInfo.WithLabelValues(version).Set(1)

	return c
}

// Registry exposes the underlying registry for gathering in tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// AddRowsLoaded records rows parsed from the input file.
func (c *Collector) AddRowsLoaded(n int) {
	c.rowsLoaded.Add(float64(n))
}

// AddRowsWritten records rows written to a named output artifact.
func (c *Collector) AddRowsWritten(output string, n int) {
	c.rowsWritten.WithLabelValues(output).Add(float64(n))
}

// IncCoercionWarning records one unparseable cell in the given column.
func (c *Collector) IncCoercionWarning(column string) {
	c.coercionWarnings.WithLabelValues(column).Inc()
}

// AddDuplicatesRemoved records rows dropped by the deduplicator.
func (c *Collector) AddDuplicatesRemoved(n int) {
	c.duplicatesRemoved.Add(float64(n))
}

// IncDatesSwapped records one admission/discharge pair put back in order.
func (c *Collector) IncDatesSwapped() {
	c.datesSwapped.Inc()
}

// IncNegativeBillingFlipped records one negative amount made positive.
func (c *Collector) IncNegativeBillingFlipped() {
	c.negativesFlipped.Inc()
}

// IncRangeViolation records one out-of-bounds value in the given column.
func (c *Collector) IncRangeViolation(column string) {
	c.rangeViolations.WithLabelValues(column).Inc()
}

// AddImputed records missing values filled in a column by a strategy.
func (c *Collector) AddImputed(column, strategy string, n int) {
	if n <= 0 {
		return
	}
	c.valuesImputed.WithLabelValues(column, strategy).Add(float64(n))
}

// ObserveStageDuration records how long a pipeline stage took.
func (c *Collector) ObserveStageDuration(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// ObserveRunDuration records the total run duration.
func (c *Collector) ObserveRunDuration(d time.Duration) {
	c.runDuration.Set(d.Seconds())
}

// SetRunSuccess marks whether the run completed.
func (c *Collector) SetRunSuccess(ok bool) {
	if ok {
		c.runSuccess.Set(1)
	} else {
		c.runSuccess.Set(0)
	}
}

// WriteTextfile writes all collected metrics to path in Prometheus text
// exposition format. The write is atomic (temp file plus rename).
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

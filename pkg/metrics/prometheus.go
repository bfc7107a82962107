package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Feature building
	featuresBuilt        *prometheus.CounterVec
	featuresInsufficient *prometheus.CounterVec

	// Prediction and training
	predictions      *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	trainingRows     *prometheus.GaugeVec
	modelsActive     prometheus.Gauge

	// Optimization
	recommendations   *prometheus.CounterVec
	solverFallbacks   *prometheus.CounterVec
	optimizerDuration *prometheus.HistogramVec
	solverNodes       prometheus.Histogram
	constrainedTotal  prometheus.Counter

	// Validation
	validationError *prometheus.GaugeVec
	validationRuns  prometheus.Counter

	// Storage
	storeLatency *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec

	// Ops endpoints
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Worker pool
	workerTasks   prometheus.Counter
	workerErrors  prometheus.Counter
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "roster",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.featuresBuilt = m.counterVec("features_built_total",
		"Feature vectors built, by role", "role")
	m.featuresInsufficient = m.counterVec("features_insufficient_total",
		"Feature vectors built without any history, by role", "role")

	m.predictions = m.counterVec("predictions_total",
		"Projections produced, by role and whether the heuristic fallback was used", "role", "heuristic")
	m.trainingDuration = m.histogramVec("training_duration_seconds",
		"Time spent fitting a model family", m.histogramBuckets, "family")
	m.trainingRows = m.gaugeVec("training_rows",
		"Rows used by the most recent fit, by role", "role")
	m.modelsActive = m.gauge("model_versions_registered",
		"Number of model versions held in the registry")

	m.recommendations = m.counterVec("recommendations_total",
		"Recommendations produced, by strategy", "strategy")
	m.solverFallbacks = m.counterVec("solver_fallbacks_total",
		"Escalations from the integer solver to the greedy heuristic, by reason", "reason")
	m.optimizerDuration = m.histogramVec("optimizer_duration_seconds",
		"Time spent producing a recommendation, by strategy", m.histogramBuckets, "strategy")
	m.solverNodes = m.histogram("solver_nodes",
		"Branch-and-bound nodes explored per solve", prometheus.ExponentialBuckets(1, 4, 8))
	m.constrainedTotal = m.counter("recommendations_constrained_total",
		"Recommendations that needed a relaxed constraint")

	m.validationError = m.gaugeVec("validation_error",
		"Error metrics of the latest validated period", "metric")
	m.validationRuns = m.counter("validation_runs_total",
		"Validation runs completed")

	m.storeLatency = m.histogramVec("store_latency_seconds",
		"Latency of persistence operations", m.histogramBuckets, "store", "op")
	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Projection cache lookups, by result", "result")

	m.httpRequests = m.counterVec("http_requests_total",
		"Ops endpoint requests, by endpoint, method and status", "endpoint", "method", "status")
	m.httpDuration = m.histogramVec("http_request_duration_seconds",
		"Ops endpoint latency", m.histogramBuckets, "endpoint", "method")

	m.workerTasks = m.counter("worker_tasks_total", "Tasks completed by the worker pool")
	m.workerErrors = m.counter("worker_errors_total", "Tasks that returned an error")
	m.workerActive = m.gauge("worker_active", "Workers currently running a task")
	m.workerLatency = m.histogram("worker_task_seconds", "Task execution time", m.histogramBuckets)
}

// RecordFeatureBuilt counts one feature vector.
func RecordFeatureBuilt(role string, insufficient bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.featuresBuilt.WithLabelValues(role).Inc()
	if insufficient {
		globalManager.featuresInsufficient.WithLabelValues(role).Inc()
	}
}

// RecordPrediction counts one projection.
func RecordPrediction(role string, heuristic bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictions.WithLabelValues(role, strconv.FormatBool(heuristic)).Inc()
}

// RecordTraining records a completed fit.
func RecordTraining(family string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.trainingDuration.WithLabelValues(family).Observe(d.Seconds())
}

// UpdateTrainingRows sets the row count of the latest fit for role.
func UpdateTrainingRows(role string, rows int) {
	if !globalManager.enabled {
		return
	}
	globalManager.trainingRows.WithLabelValues(role).Set(float64(rows))
}

// UpdateModelVersions sets the number of registered model versions.
func UpdateModelVersions(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelsActive.Set(float64(n))
}

// RecordRecommendation records a finished optimization.
func RecordRecommendation(strategy string, constrained bool, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendations.WithLabelValues(strategy).Inc()
	globalManager.optimizerDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if constrained {
		globalManager.constrainedTotal.Inc()
	}
}

// RecordSolverFallback counts an escalation to the greedy strategy.
func RecordSolverFallback(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.solverFallbacks.WithLabelValues(reason).Inc()
}

// RecordSolverNodes observes the size of one branch-and-bound search.
func RecordSolverNodes(nodes int) {
	if !globalManager.enabled {
		return
	}
	globalManager.solverNodes.Observe(float64(nodes))
}

// UpdateValidationError publishes the error metrics of a validation run.
func UpdateValidationError(mae, rmse, r2, bias float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.validationRuns.Inc()
	globalManager.validationError.WithLabelValues("mae").Set(mae)
	globalManager.validationError.WithLabelValues("rmse").Set(rmse)
	globalManager.validationError.WithLabelValues("r2").Set(r2)
	globalManager.validationError.WithLabelValues("bias").Set(bias)
}

// RecordStoreLatency observes one persistence call.
func RecordStoreLatency(store, op string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(store, op).Observe(d.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one request served by the ops endpoints.
func RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	globalManager.httpDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// RecordWorkerTask records one task run by the pool.
func RecordWorkerTask(d time.Duration, err error) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerTasks.Inc()
	globalManager.workerLatency.Observe(d.Seconds())
	if err != nil {
		globalManager.workerErrors.Inc()
	}
}

// UpdateWorkerActive adjusts the number of busy workers by delta.
func UpdateWorkerActive(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerActive.Add(float64(delta))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

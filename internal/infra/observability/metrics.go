package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// Import record outcomes used as metric labels.
const (
	ImportValid   = "valid"
	ImportInvalid = "invalid"
	ImportUpdate  = "update"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	importRecords     *prometheus.CounterVec
	batchItems        *prometheus.CounterVec
	balanceMismatches *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_store_errors_total",
				Help: "Total errors returned by the document store.",
			},
			[]string{"collection"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		importRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_import_records_total",
				Help: "Parsed paste-import records by outcome.",
			},
			[]string{"result"},
		),
		batchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_batch_items_total",
				Help: "Items processed by batch operations.",
			},
			[]string{"operation", "result"},
		),
		balanceMismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_balance_mismatches_total",
				Help: "Running balance cross-checks outside tolerance.",
			},
			[]string{"account"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(collection string) {
	m.storeErrors.WithLabelValues(collection).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordImport counts parsed records by outcome.
func (m *Metrics) RecordImport(valid, invalid, updates int) {
	m.importRecords.WithLabelValues(ImportValid).Add(float64(valid))
	m.importRecords.WithLabelValues(ImportInvalid).Add(float64(invalid))
	m.importRecords.WithLabelValues(ImportUpdate).Add(float64(updates))
}

// RecordBatch counts the per-item outcome of a batch operation.
func (m *Metrics) RecordBatch(res *domain.BatchResult) {
	m.batchItems.WithLabelValues(res.Operation, "succeeded").Add(float64(len(res.Succeeded)))
	m.batchItems.WithLabelValues(res.Operation, "failed").Add(float64(len(res.Failed)))
}

// IncrBalanceMismatch counts a failed running balance cross-check.
func (m *Metrics) IncrBalanceMismatch(accountID string) {
	m.balanceMismatches.WithLabelValues(accountID).Inc()
}

// GetImportSnapshot returns a snapshot of import-related metrics suitable
// for the GET /v1/metrics/imports endpoint.
func (m *Metrics) GetImportSnapshot() *domain.ImportMetrics {
	valid := getCounterValue(m.importRecords.WithLabelValues(ImportValid))
	invalid := getCounterValue(m.importRecords.WithLabelValues(ImportInvalid))
	updates := getCounterValue(m.importRecords.WithLabelValues(ImportUpdate))
	hits := getCounterValue(m.cacheHits.WithLabelValues("accounts"))
	misses := getCounterValue(m.cacheMisses.WithLabelValues("accounts"))

	invalidRate := float64(0)
	if valid+invalid > 0 {
		invalidRate = invalid / (valid + invalid)
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.ImportMetrics{
		RecordsValid:    int64(valid),
		RecordsInvalid:  int64(invalid),
		RecordsUpdate:   int64(updates),
		InvalidRate:     invalidRate,
		BatchFailures:   int64(sumCounterVec(m.batchItems, "result", "failed")),
		BalanceMismatch: int64(sumCounterVec(m.balanceMismatches, "", "")),
		CacheHitRate:    cacheHitRate,
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every series of cv, optionally only those whose
// label equals value.
func sumCounterVec(cv *prometheus.CounterVec, label, value string) float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		if label != "" && !hasLabel(m, label, value) {
			continue
		}
		total += m.Counter.GetValue()
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

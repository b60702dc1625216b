package endpoint

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/opslog"
)

// batchesMetric and recordsMetric are registered lazily against the
// default registry the first time a MeterDrain is pushed to, so a
// process that never configures `output=meter` never touches
// Prometheus at all.
var (
	batchesMetric *prometheus.CounterVec
	recordsMetric *prometheus.CounterVec
)

func meterMetrics() (*prometheus.CounterVec, *prometheus.CounterVec) {
	if batchesMetric != nil {
		return batchesMetric, recordsMetric
	}
	batchesMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streambench_drain_batches_total",
		Help: "Closed-epoch batches observed by the meter drain, by query.",
	}, []string{"query"})
	recordsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streambench_drain_records_total",
		Help: "Records observed by the meter drain, by query.",
	}, []string{"query"})
	prometheus.MustRegister(batchesMetric, recordsMetric)
	return batchesMetric, recordsMetric
}

// MeterDrain logs `(epoch, record_count)` for every closed epoch and
// mirrors the same counts into Prometheus counters, labeled by query
// name — the `meter` output variant's diagnostics-stream contract.
type MeterDrain[D any] struct {
	query string
	log   opslog.Logger
}

func NewMeterDrain[D any](query string, log opslog.Logger) *MeterDrain[D] {
	return &MeterDrain[D]{query: query, log: log}
}

func (m *MeterDrain[D]) Push(t epoch.T, batch []D) {
	batches, records := meterMetrics()
	batches.WithLabelValues(m.query).Inc()
	records.WithLabelValues(m.query).Add(float64(len(batch)))
	m.log.WithFields(map[string]interface{}{"epoch": uint64(t), "count": len(batch)}).
		Infof("epoch closed")
}

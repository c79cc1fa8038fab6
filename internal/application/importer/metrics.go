package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type Metrics struct {
	jobsFinished  *prometheus.CounterVec
	rows          *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewMetrics builds the pipeline collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csv_import",
			Name:      "jobs_finished_total",
			Help:      "Import jobs that reached a terminal status.",
		}, []string{"import_type", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csv_import",
			Name:      "rows_total",
			Help:      "Data rows handled by the import pipeline, by outcome.",
		}, []string{"import_type", "outcome"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "csv_import",
			Name:      "batch_write_seconds",
			Help:      "Latency of batch writes to the destination table.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"import_type"}),
	}
	if reg != nil {
		reg.MustRegister(m.jobsFinished, m.rows, m.batchDuration)
	}
	return m
}

func (m *Metrics) jobFinished(importType domain.ImportType, status domain.Status) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(string(importType), string(status)).Inc()
}

func (m *Metrics) rowsHandled(importType domain.ImportType, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rows.WithLabelValues(string(importType), outcome).Add(float64(n))
}

func (m *Metrics) batchWritten(importType domain.ImportType, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(string(importType)).Observe(elapsed.Seconds())
}

// Package metrics defines the Prometheus collectors exported by the upload
// server. All methods are safe to call on a nil *UploadMetrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UploadMetrics holds the collectors for chunk ingestion, finalize and reaping.
type UploadMetrics struct {
	ChunksReceived   prometheus.Counter     // gophupload_chunks_received_total
	BytesReceived    prometheus.Counter     // gophupload_bytes_received_total
	SequencingErrors prometheus.Counter     // gophupload_sequencing_errors_total
	WriteErrors      prometheus.Counter     // gophupload_chunk_write_errors_total
	Finalized        *prometheus.CounterVec // gophupload_finalized_total{outcome}
	Evicted          prometheus.Counter     // gophupload_evicted_total
	InFlight         prometheus.Gauge       // gophupload_in_flight_uploads
	CleanupRuns      prometheus.Counter     // gophupload_cleanup_runs_total

	gatherer prometheus.Gatherer
}

// New registers the upload collectors on reg.
func New(reg *prometheus.Registry) *UploadMetrics {
	f := promauto.With(reg)
	return &UploadMetrics{
		ChunksReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_chunks_received_total",
			Help: "Chunks accepted and persisted",
		}),
		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_bytes_received_total",
			Help: "Payload bytes persisted to chunk files",
		}),
		SequencingErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_sequencing_errors_total",
			Help: "Chunks rejected because no in-flight upload matched",
		}),
		WriteErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_chunk_write_errors_total",
			Help: "Chunks that failed to persist",
		}),
		Finalized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophupload_finalized_total",
			Help: "Finalize calls by outcome",
		}, []string{"outcome"}),
		Evicted: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_evicted_total",
			Help: "Abandoned uploads evicted by the reaper",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "gophupload_in_flight_uploads",
			Help: "Uploads currently registered",
		}),
		CleanupRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "gophupload_cleanup_runs_total",
			Help: "Reaper invocations",
		}),
		gatherer: reg,
	}
}

func (m *UploadMetrics) ChunkStored(size int) {
	if m == nil {
		return
	}
	m.ChunksReceived.Inc()
	m.BytesReceived.Add(float64(size))
}

func (m *UploadMetrics) SequencingError() {
	if m == nil {
		return
	}
	m.SequencingErrors.Inc()
}

func (m *UploadMetrics) WriteError() {
	if m == nil {
		return
	}
	m.WriteErrors.Inc()
}

func (m *UploadMetrics) FinalizeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Finalized.WithLabelValues(outcome).Inc()
}

func (m *UploadMetrics) CleanupRun(evicted int) {
	if m == nil {
		return
	}
	m.CleanupRuns.Inc()
	m.Evicted.Add(float64(evicted))
}

func (m *UploadMetrics) SetInFlight(n int) {
	if m == nil {
		return
	}
	m.InFlight.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *UploadMetrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

package metapager

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records the behaviour of a storage collaborator.
type ScanMetrics struct {
	duration *prometheus.HistogramVec
	failures prometheus.Counter
	rows     prometheus.Histogram
}

// NewScanMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	m := &ScanMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "metapager_scan_duration_seconds",
				Help:    "Duration of storage scans issued by the pager",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metapager_scan_failures_total",
			Help: "Total number of failed storage scans",
		}),
		rows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metapager_scan_rows",
			Help:    "Number of rows returned per storage scan",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.duration, m.failures, m.rows)
	}

	return m
}

type instrumentedScanner[R Row] struct {
	next    Scanner[R]
	metrics *ScanMetrics
}

// InstrumentScanner wraps a collaborator so that every scan is measured.
func InstrumentScanner[R Row](next Scanner[R], metrics *ScanMetrics) Scanner[R] {
	return &instrumentedScanner[R]{next: next, metrics: metrics}
}

func (s *instrumentedScanner[R]) Scan(ctx context.Context, req ScanRequest) ([]R, error) {
	started := time.Now()

	rows, err := s.next.Scan(ctx, req)
	if err != nil {
		s.metrics.duration.WithLabelValues("error").Observe(time.Since(started).Seconds())
		s.metrics.failures.Inc()

		return nil, err
	}

	s.metrics.duration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	s.metrics.rows.Observe(float64(len(rows)))

	return rows, nil
}

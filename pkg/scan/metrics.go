package scan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records scan activity for Prometheus.
type Metrics struct {
	Measurements *prometheus.CounterVec
	Moves        *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	BestSignal   *prometheus.GaugeVec
}

// NewMetrics creates the scan collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Measurements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gator_scan_measurements_total",
				Help: "Total number of signal measurements taken by scans",
			},
			[]string{"scan"},
		),
		Moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gator_scan_moves_total",
				Help: "Total number of motion commands issued by scans",
			},
			[]string{"axis"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gator_scan_duration_seconds",
				Help:    "Duration of completed scans",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"scan"},
		),
		BestSignal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gator_scan_best_signal",
				Help: "Best signal found by the most recent scan",
			},
			[]string{"scan"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Measurements, m.Moves, m.Duration, m.BestSignal)
	}
	return m
}

func (m *Metrics) measured(scan string) {
	if m != nil {
		m.Measurements.WithLabelValues(scan).Inc()
	}
}

func (m *Metrics) moved(axis string) {
	if m != nil {
		m.Moves.WithLabelValues(axis).Inc()
	}
}

func (m *Metrics) finished(scan string, seconds, best float64) {
	if m != nil {
		m.Duration.WithLabelValues(scan).Observe(seconds)
		m.BestSignal.WithLabelValues(scan).Set(best)
	}
}

// Package monitor exposes training and prediction outcomes as Prometheus
// metrics.
package monitor

import (
	"math"
	"time"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carprice"

// Outcome label values.
const (
	OutcomeSuccess      = "success"
	OutcomeError        = "error"
	OutcomeInvalidInput = "invalid_input"
)

// Monitor implements linear.Observer on top of Prometheus collectors.
type Monitor struct {
	TrainingRuns     *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	FinalCost        prometheus.Gauge
	Predictions      *prometheus.CounterVec
}

var _ linear.Observer = (*Monitor)(nil)

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) (*Monitor, error) {
	m := &Monitor{
		TrainingRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_runs_total",
				Help:      "Number of training runs by outcome.",
			}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Wall time of training runs.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}),
		FinalCost: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "training_final_cost",
				Help:      "Normalized cost of the last successful training run.",
			}),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Number of price predictions by outcome.",
			}, []string{"outcome"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.TrainingRuns, m.TrainingDuration, m.FinalCost, m.Predictions} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}
	return m, nil
}

// ObserveTraining implements linear.Observer.
func (m *Monitor) ObserveTraining(d time.Duration, finalCost float64, err error) {
	m.TrainingDuration.Observe(d.Seconds())
	if err != nil {
		m.TrainingRuns.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.TrainingRuns.WithLabelValues(OutcomeSuccess).Inc()
	if !math.IsNaN(finalCost) {
		m.FinalCost.Set(finalCost)
	}
}

// ObservePrediction implements linear.Observer.
func (m *Monitor) ObservePrediction(err error) {
	switch {
	case err == nil:
		m.Predictions.WithLabelValues(OutcomeSuccess).Inc()
	case errors.Is(err, errors.ErrInvalidInput):
		m.Predictions.WithLabelValues(OutcomeInvalidInput).Inc()
	default:
		m.Predictions.WithLabelValues(OutcomeError).Inc()
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format read by the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}

package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTraining(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveTraining(2*time.Second, 0.25, nil)
	m.ObserveTraining(time.Second, 0.5, errors.New("diverged"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingRuns.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingRuns.WithLabelValues(OutcomeError)))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.FinalCost))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TrainingDuration))
}

func TestObservePrediction(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObservePrediction(nil)
	m.ObservePrediction(nil)
	m.ObservePrediction(errors.NewInvalidInputError("PredictPrice", "mileage", -1, "must not be negative"))
	m.ObservePrediction(errors.New("other"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeInvalidInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeError)))
}

func TestMonitorWiredIntoTrainer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	samples := []linear.Sample{{X: 0, Y: 2}, {X: 1, Y: 4}, {X: 2, Y: 6}}
	model, err := linear.NewTrainer(
		linear.WithLearningRate(0.1),
		linear.WithIterations(5000),
		linear.WithObserver(m),
	).Train(samples)
	require.NoError(t, err)

	_, err = linear.NewTrainer(linear.WithObserver(m)).Train(nil)
	require.Error(t, err)

	p := linear.NewPredictor(model, linear.WithObserver(m))
	_, err = p.Predict(3)
	require.NoError(t, err)
	_, err = p.Predict(-3)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingRuns.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingRuns.WithLabelValues(OutcomeError)))
	assert.Less(t, testutil.ToFloat64(m.FinalCost), 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeInvalidInput)))

	count, err := testutil.GatherAndCount(reg, "carprice_training_runs_total", "carprice_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObservePrediction(nil)

	path := filepath.Join(t.TempDir(), "carprice.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `carprice_predictions_total{outcome="success"} 1`)

	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg))
}

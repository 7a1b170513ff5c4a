package linear

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carSamples は走行距離と価格の実データ
var carSamples = []Sample{
	{240000, 3650}, {139800, 3800}, {150500, 4400}, {185530, 4450},
	{176000, 5250}, {114800, 5350}, {166800, 5800}, {89000, 5990},
	{144500, 5999}, {84000, 6200}, {82029, 6390}, {63060, 6390},
	{74000, 6600}, {97500, 6800}, {67000, 6800}, {76025, 6900},
	{48235, 6900}, {93000, 6990}, {60949, 7490}, {65674, 7555},
	{54000, 7990}, {68500, 7990}, {22899, 7990}, {61789, 8290},
}

var lineSamples = []Sample{{0, 2}, {1, 4}, {2, 6}}

type recordingObserver struct {
	mu          sync.Mutex
	trainings   []error
	costs       []float64
	predictions []error
}

func (o *recordingObserver) ObserveTraining(_ time.Duration, finalCost float64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trainings = append(o.trainings, err)
	o.costs = append(o.costs, finalCost)
}

func (o *recordingObserver) ObservePrediction(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.predictions = append(o.predictions, err)
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var mu sync.Mutex
	warnings := &[]error{}
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		*warnings = append(*warnings, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return warnings
}

func TestTrainEndToEnd(t *testing.T) {
	m, err := Train(lineSamples, 0.1, 10000)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, m.Theta0, 1e-9)
	assert.InDelta(t, 2.0, m.Theta1, 1e-9)
	assert.InDelta(t, 8.0, m.Predict(3), 1e-9)
	assert.True(t, m.IsFitted())
}

func TestTrainLargeDataset(t *testing.T) {
	samples := make([]Sample, 5000)
	for i := range samples {
		x := float64(i)
		samples[i] = Sample{X: x, Y: 3*x + 1}
	}

	m, err := NewTrainer(WithLearningRate(0.5), WithIterations(5000)).Train(samples)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Theta0, 1e-6)
	assert.InDelta(t, 3.0, m.Theta1, 1e-9)
}

func TestTrainMatchesLeastSquares(t *testing.T) {
	m, err := NewTrainer().Train(carSamples)
	require.NoError(t, err)

	ref, err := LeastSquares(carSamples)
	require.NoError(t, err)

	assert.InEpsilon(t, ref.Theta0, m.Theta0, 1e-6)
	assert.InEpsilon(t, ref.Theta1, m.Theta1, 1e-6)
	assert.Less(t, m.Theta1, 0.0, "price decreases with mileage")
}

func TestTrainWithReport(t *testing.T) {
	m, report, err := NewTrainer(
		WithLearningRate(0.1),
		WithIterations(10000),
		WithLossHistory(true),
	).TrainWithReport(lineSamples)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Len(t, report.RunID, 36)
	assert.Equal(t, 3, report.Samples)
	assert.Equal(t, 10000, report.Iterations)
	assert.Equal(t, 0.1, report.LearningRate)
	assert.Equal(t, 0.0, report.Bounds.MinX)
	assert.Equal(t, 2.0, report.Bounds.MaxX)
	assert.Equal(t, 2.0, report.Bounds.MinY)
	assert.Equal(t, 6.0, report.Bounds.MaxY)
	assert.InDelta(t, 0.0, report.NormalizedTheta0, 1e-9)
	assert.InDelta(t, 1.0, report.NormalizedTheta1, 1e-9)
	assert.Len(t, report.LossHistory, 10000)
	assert.Less(t, report.FinalCost, 1e-15)
	assert.Greater(t, report.Duration, time.Duration(0))

	b, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, report.Bounds, b)
}

func TestTrainRescaleFormula(t *testing.T) {
	// 正規化空間の係数から元の単位への変換が、正規化式の代入と一致すること
	_, report, err := NewTrainer(WithLearningRate(0.5), WithIterations(50)).TrainWithReport(carSamples)
	require.NoError(t, err)

	m := rescale(report.NormalizedTheta0, report.NormalizedTheta1, report.Bounds)
	b := report.Bounds
	for _, x := range []float64{b.MinX, b.MaxX, 100000} {
		nx := (x - b.MinX) / (b.MaxX - b.MinX)
		ny := report.NormalizedTheta0 + report.NormalizedTheta1*nx
		want := ny*(b.MaxY-b.MinY) + b.MinY
		assert.InDelta(t, want, m.Predict(x), 1e-6)
	}
}

func TestTrainLossIsMonotonic(t *testing.T) {
	_, report, err := NewTrainer(
		WithLearningRate(0.1),
		WithIterations(2000),
		WithLossHistory(true),
	).TrainWithReport(lineSamples)
	require.NoError(t, err)

	history := report.LossHistory
	require.Len(t, history, 2000)
	for i := 1; i < len(history); i++ {
		assert.LessOrEqual(t, history[i], history[i-1]+1e-15, "iteration %d", i)
	}
	assert.Less(t, history[len(history)-1], history[0])
}

func TestTrainIsDeterministic(t *testing.T) {
	trainer := NewTrainer(WithLearningRate(0.05), WithIterations(5000))

	first, err := trainer.Train(carSamples)
	require.NoError(t, err)
	second, err := trainer.Train(carSamples)
	require.NoError(t, err)

	assert.Equal(t, first.Theta0, second.Theta0)
	assert.Equal(t, first.Theta1, second.Theta1)
}

func TestTrainScaleInvariance(t *testing.T) {
	shifted := make([]Sample, len(lineSamples))
	for i, s := range lineSamples {
		shifted[i] = Sample{X: s.X + 1000, Y: s.Y}
	}

	trainer := NewTrainer(WithLearningRate(0.1), WithIterations(3000))
	_, base, err := trainer.TrainWithReport(lineSamples)
	require.NoError(t, err)
	m, moved, err := trainer.TrainWithReport(shifted)
	require.NoError(t, err)

	assert.InDelta(t, base.NormalizedTheta0, moved.NormalizedTheta0, 1e-12)
	assert.InDelta(t, base.NormalizedTheta1, moved.NormalizedTheta1, 1e-12)
	for _, s := range lineSamples {
		assert.InDelta(t, s.Y, m.Predict(s.X+1000), 1e-6)
	}
}

func TestTrainDegenerateInput(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		axis    string
	}{
		{name: "single sample", samples: []Sample{{5, 100}}, axis: "x"},
		{name: "constant mileage", samples: []Sample{{5, 100}, {5, 200}}, axis: "x"},
		{name: "constant price", samples: []Sample{{1, 7}, {2, 7}, {3, 7}}, axis: "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewTrainer(WithIterations(10)).Train(tt.samples)
			assert.Nil(t, m)
			require.True(t, errors.Is(err, errors.ErrDegenerateAxis))

			var axisErr *errors.DegenerateAxisError
			require.True(t, errors.As(err, &axisErr))
			assert.Equal(t, tt.axis, axisErr.Axis)
		})
	}
}

func TestTrainEmptyDataset(t *testing.T) {
	m, err := NewTrainer().Train(nil)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestTrainRejectsNonFiniteSamples(t *testing.T) {
	for _, s := range []Sample{{math.NaN(), 1}, {1, math.Inf(1)}} {
		_, err := NewTrainer(WithIterations(10)).Train([]Sample{{0, 0}, s, {2, 2}})
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr))
	}
}

func TestTrainValidatesHyperparameters(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		param string
	}{
		{name: "zero learning rate", opts: []Option{WithLearningRate(0)}, param: "learning_rate"},
		{name: "negative learning rate", opts: []Option{WithLearningRate(-0.1)}, param: "learning_rate"},
		{name: "NaN learning rate", opts: []Option{WithLearningRate(math.NaN())}, param: "learning_rate"},
		{name: "infinite learning rate", opts: []Option{WithLearningRate(math.Inf(1))}, param: "learning_rate"},
		{name: "zero iterations", opts: []Option{WithIterations(0)}, param: "iterations"},
		{name: "negative tolerance", opts: []Option{WithTolerance(-1)}, param: "tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewTrainer(tt.opts...).Train(lineSamples)
			assert.Nil(t, m)

			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestTrainDivergence(t *testing.T) {
	observer := &recordingObserver{}
	m, report, err := NewTrainer(
		WithLearningRate(10),
		WithIterations(5000),
		WithObserver(observer),
	).TrainWithReport(lineSamples)

	assert.Nil(t, m)
	assert.Nil(t, report)

	var instability *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &instability))
	assert.Greater(t, instability.Iteration, 1)
	assert.Less(t, instability.Iteration, 5000)

	require.Len(t, observer.trainings, 1)
	assert.Error(t, observer.trainings[0])
	assert.True(t, math.IsNaN(observer.costs[0]))
}

func TestTrainRejectsOverflowingRescale(t *testing.T) {
	captureWarnings(t)
	observer := &recordingObserver{}

	// 正規化空間では収束するが ΔY/ΔX が +Inf になる
	samples := []Sample{{0, 0}, {1e-310, 1e300}, {5e-311, 5e299}}
	m, report, err := NewTrainer(
		WithLearningRate(0.1),
		WithIterations(1000),
		WithObserver(observer),
	).TrainWithReport(samples)

	assert.Nil(t, m)
	assert.Nil(t, report)

	var instability *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &instability))
	assert.Equal(t, "rescale", instability.Operation)
	assert.Equal(t, 1000, instability.Iteration)

	require.Len(t, observer.trainings, 1)
	assert.Error(t, observer.trainings[0])
}

func TestTrainConvergenceWarning(t *testing.T) {
	warnings := captureWarnings(t)

	m, err := NewTrainer(WithIterations(1)).Train(lineSamples)
	require.NoError(t, err, "non-convergence is a warning, not an error")
	assert.NotNil(t, m)

	require.Len(t, *warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As((*warnings)[0], &cw))
	assert.Equal(t, 1, cw.Iterations)
	assert.Greater(t, cw.GradientNorm, DefaultTolerance)
}

func TestTrainNoWarningWhenConverged(t *testing.T) {
	warnings := captureWarnings(t)

	_, err := Train(lineSamples, 0.1, 10000)
	require.NoError(t, err)
	assert.Empty(t, *warnings)
}

func TestTrainObserverAndLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	observer := &recordingObserver{}

	_, err := NewTrainer(
		WithLearningRate(0.1),
		WithIterations(100),
		WithLogger(logger),
		WithObserver(observer),
	).Train(lineSamples)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Training started"))
	assert.True(t, logger.ContainsMessage("Training completed"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "LinearRegression"))
	assert.True(t, logger.ContainsField(log.SamplesKey, 3.0))
	assert.True(t, logger.ContainsField(log.IterationsKey, 100.0))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	progress := 0
	for _, e := range entries {
		if e["message"] == "Gradient descent progress" {
			progress++
		}
	}
	assert.Equal(t, 10, progress)

	require.Len(t, observer.trainings, 1)
	assert.NoError(t, observer.trainings[0])
	assert.Less(t, observer.costs[0], 1.0)
}

func TestTrainLogsFailure(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)

	_, err := NewTrainer(WithLogger(logger)).Train([]Sample{{1, 1}, {1, 2}})
	require.Error(t, err)

	assert.True(t, logger.ContainsMessage("Training failed"))
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorDegenerateAxis))
	assert.False(t, logger.ContainsMessage("Training started"))
}

func TestTrainerIsReusableConcurrently(t *testing.T) {
	trainer := NewTrainer(WithLearningRate(0.1), WithIterations(2000))

	var wg sync.WaitGroup
	results := make([]*Model, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := trainer.Train(lineSamples)
			if err == nil {
				results[i] = m
			}
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		require.NotNil(t, m)
		assert.Equal(t, results[0].Theta0, m.Theta0)
		assert.Equal(t, results[0].Theta1, m.Theta1)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := NewTrainer().Config()
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, 100000, cfg.Iterations)
	assert.Equal(t, 1e-6, cfg.Tolerance)
	assert.False(t, cfg.RecordLoss)
	assert.NoError(t, cfg.Validate())

	custom := DefaultConfig()
	custom.Iterations = 7
	assert.Equal(t, 7, NewTrainer(WithConfig(custom)).Config().Iterations)
}

func BenchmarkTrain(b *testing.B) {
	trainer := NewTrainer(WithIterations(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = trainer.Train(carSamples)
	}
}

package linear

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/carprice/core/parallel"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/preprocessing"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

const modelName = "LinearRegression"

// Observer は学習と推論の結果を受け取る。pkg/monitor が実装する
type Observer interface {
	// ObserveTraining は学習の終了時に呼ばれる。失敗時 finalCost は NaN
	ObserveTraining(d time.Duration, finalCost float64, err error)

	// ObservePrediction は Predictor.Predict の度に呼ばれる
	ObservePrediction(err error)
}

// TrainingReport は1回の学習の記録
type TrainingReport struct {
	// RunID は学習ごとに払い出される UUID
	RunID string

	// Bounds は学習データから求めた正規化範囲
	Bounds preprocessing.Bounds

	// NormalizedTheta0, NormalizedTheta1 は正規化空間での係数
	NormalizedTheta0 float64
	NormalizedTheta1 float64

	Samples      int
	LearningRate float64
	Iterations   int

	// FinalCost は最終係数での正規化空間のコスト Σerr²/(2m)
	FinalCost float64

	// GradientNorm は最終係数での勾配のノルム
	GradientNorm float64

	// LossHistory は各更新前のコスト。WithLossHistory(true) の場合のみ
	LossHistory []float64

	Duration time.Duration
}

// Trainer は全バッチ勾配降下で Model を学習する
// 実行ごとの状態は持たないので、同じ Trainer を繰り返し使ってよい
type Trainer struct {
	cfg Config
}

// NewTrainer は新しいTrainerを作成する
//
// 使用例:
//
//	trainer := linear.NewTrainer(
//	    linear.WithLearningRate(0.1),
//	    linear.WithIterations(10000),
//	)
//	m, err := trainer.Train(samples)
func NewTrainer(opts ...Option) *Trainer {
	return &Trainer{cfg: newConfig(opts)}
}

// Config は Trainer の設定を返す
func (t *Trainer) Config() Config {
	return t.cfg
}

// Train は学習率と反復回数を指定して学習する
func Train(samples []Sample, learningRate float64, iterations int) (*Model, error) {
	return NewTrainer(WithLearningRate(learningRate), WithIterations(iterations)).Train(samples)
}

// Train はサンプルからモデルを学習する
//
// 戻り値:
//   - *Model: 元の単位に戻した係数を持つ学習済みモデル
//   - error: 空データ、軸の縮退、不正なハイパーパラメータ、発散のいずれか
func (t *Trainer) Train(samples []Sample) (*Model, error) {
	m, _, err := t.TrainWithReport(samples)
	return m, err
}

// TrainWithReport は Train と同じ学習を行い、TrainingReport も返す
// 失敗した場合、モデルとレポートはどちらも nil
func (t *Trainer) TrainWithReport(samples []Sample) (m *Model, report *TrainingReport, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := t.cfg.logger().With(
		log.ModelNameKey, modelName,
		log.EstimatorIDKey, runID,
		log.ComponentKey, "linear",
	)

	defer func() {
		d := time.Since(start)
		cost := math.NaN()
		if err != nil {
			m, report = nil, nil
			logger.Error("Training failed", err,
				log.OperationKey, log.OperationFit,
				log.ErrorCodeKey, errorCode(err),
			)
		} else {
			report.Duration = d
			cost = report.FinalCost
		}
		if t.cfg.Observer != nil {
			t.cfg.Observer.ObserveTraining(d, cost, err)
		}
	}()
	defer errors.Recover(&err, "Trainer.Train")

	if err := t.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	xs, ys, err := splitSamples(samples)
	if err != nil {
		return nil, nil, err
	}

	bounds, err := preprocessing.ComputeBounds(xs, ys)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(samples),
		log.LearningRateKey, t.cfg.LearningRate,
		log.IterationsKey, t.cfg.Iterations,
	)

	// 正規化したデータはこの呼び出しの中だけで使う
	nx := make([]float64, len(xs))
	ny := make([]float64, len(ys))
	parallel.ParallelizeWithThreshold(len(xs), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			nx[i] = preprocessing.Normalize(xs[i], bounds.MinX, bounds.MaxX)
			ny[i] = preprocessing.Normalize(ys[i], bounds.MinY, bounds.MaxY)
		}
	})

	gd := newDescent(nx, ny)
	var history []float64
	if t.cfg.RecordLoss {
		history = make([]float64, 0, t.cfg.Iterations)
	}

	debugEvery := 0
	if logger.Enabled(context.Background(), log.LevelDebug) {
		debugEvery = max(t.cfg.Iterations/10, 1)
	}

	var theta0, theta1 float64
	for i := 0; i < t.cfg.Iterations; i++ {
		grad0, grad1, cost := gd.gradient(theta0, theta1)
		if t.cfg.RecordLoss {
			history = append(history, cost)
		}
		if debugEvery > 0 && i%debugEvery == 0 {
			logger.Debug("Gradient descent progress",
				log.IterationKey, i,
				log.LossKey, cost,
			)
		}

		// 両方の勾配を同じ係数から求めてから同時に更新する
		theta0 -= t.cfg.LearningRate * grad0
		theta1 -= t.cfg.LearningRate * grad1

		if err := errors.CheckNumericalStability("gradient_update", []float64{theta0, theta1}, i+1); err != nil {
			return nil, nil, err
		}
	}

	grad0, grad1, finalCost := gd.gradient(theta0, theta1)
	gradNorm := math.Hypot(grad0, grad1)
	if gradNorm > t.cfg.Tolerance {
		errors.Warn(errors.NewConvergenceWarning(modelName, t.cfg.Iterations, gradNorm,
			"gradient norm is above tolerance; consider more iterations or a larger learning rate"))
	}

	m = rescale(theta0, theta1, bounds)
	// ΔY/ΔX が桁あふれすると元の単位の係数だけが有限でなくなる
	if err := errors.CheckNumericalStability("rescale", []float64{m.Theta0, m.Theta1}, t.cfg.Iterations); err != nil {
		return nil, nil, err
	}
	cfg := t.cfg
	cfg.Logger, cfg.Observer = nil, nil
	m.config = &cfg

	report = &TrainingReport{
		RunID:            runID,
		Bounds:           bounds,
		NormalizedTheta0: theta0,
		NormalizedTheta1: theta1,
		Samples:          len(samples),
		LearningRate:     t.cfg.LearningRate,
		Iterations:       t.cfg.Iterations,
		FinalCost:        finalCost,
		GradientNorm:     gradNorm,
		LossHistory:      history,
	}

	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.Theta0Key, m.Theta0,
		log.Theta1Key, m.Theta1,
		log.LossKey, finalCost,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, report, nil
}

// rescale は正規化空間の係数を元の単位に戻す
//
//	ny = t0 + t1*nx, nx = (x-minX)/ΔX, y = ny*ΔY + minY
//	=> y = (t0*ΔY + minY - t1*minX*ΔY/ΔX) + (t1*ΔY/ΔX)*x
func rescale(theta0, theta1 float64, b preprocessing.Bounds) *Model {
	slope := theta1 * b.RangeY() / b.RangeX()
	intercept := preprocessing.Denormalize(theta0, b.MinY, b.MaxY) - slope*b.MinX

	m := NewModel(intercept, slope)
	m.bounds = &b
	m.SetFitted()
	return m
}

// descent は正規化データ上の平均二乗誤差の勾配を計算する
type descent struct {
	nx, ny []float64
	errs   []float64
	m      float64
}

func newDescent(nx, ny []float64) *descent {
	return &descent{nx: nx, ny: ny, errs: make([]float64, len(nx)), m: float64(len(nx))}
}

// gradient は (θ0, θ1) における勾配とコスト Σerr²/(2m) を返す
func (d *descent) gradient(theta0, theta1 float64) (grad0, grad1, cost float64) {
	// err_i = θ0 + θ1*nx_i - ny_i
	floats.ScaleTo(d.errs, theta1, d.nx)
	floats.AddConst(theta0, d.errs)
	floats.Sub(d.errs, d.ny)

	grad0 = floats.Sum(d.errs) / d.m
	grad1 = floats.Dot(d.errs, d.nx) / d.m
	cost = floats.Dot(d.errs, d.errs) / (2 * d.m)
	return grad0, grad1, cost
}

func splitSamples(samples []Sample) (xs, ys []float64, err error) {
	if len(samples) == 0 {
		return nil, nil, errors.NewModelError("Trainer.Train", "empty data", errors.ErrEmptyData)
	}

	xs = make([]float64, len(samples))
	ys = make([]float64, len(samples))
	for i, s := range samples {
		if !errors.IsFinite(s.X) || !errors.IsFinite(s.Y) {
			return nil, nil, errors.NewValidationError("samples", "coordinates must be finite", s)
		}
		xs[i], ys[i] = s.X, s.Y
	}
	return xs, ys, nil
}

func errorCode(err error) string {
	var (
		instability *errors.NumericalInstabilityError
		validation  *errors.ValidationError
	)
	switch {
	case errors.Is(err, errors.ErrEmptyData):
		return log.ErrorEmptyData
	case errors.Is(err, errors.ErrDegenerateAxis):
		return log.ErrorDegenerateAxis
	case errors.Is(err, errors.ErrInvalidInput):
		return log.ErrorInvalidInput
	case errors.As(err, &instability):
		return log.ErrorDiverged
	case errors.As(err, &validation):
		return log.ErrorValidation
	default:
		return "UNKNOWN"
	}
}

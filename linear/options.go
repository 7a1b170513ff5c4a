package linear

import (
	"math"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

const (
	// DefaultLearningRate は勾配降下の既定の学習率
	DefaultLearningRate = 0.01

	// DefaultIterations は勾配降下の既定の反復回数
	DefaultIterations = 100000

	// DefaultTolerance は最終勾配ノルムがこれを超えると ConvergenceWarning を出す
	DefaultTolerance = 1e-6
)

// Config は学習と推論の設定
type Config struct {
	// LearningRate は正規化空間での学習率。有限かつ正であること
	LearningRate float64

	// Iterations は更新回数。早期終了はしない
	Iterations int

	// Tolerance は収束判定に使う勾配ノルムの閾値
	Tolerance float64

	// RecordLoss が true なら各更新前のコストを TrainingReport に記録する
	RecordLoss bool

	// Logger が nil の場合は log.GetLogger() を使う
	Logger log.Logger

	// Observer は学習・推論の結果を受け取る。nil なら何もしない
	Observer Observer
}

// DefaultConfig は既定の設定を返す
func DefaultConfig() Config {
	return Config{
		LearningRate: DefaultLearningRate,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
	}
}

// Validate はハイパーパラメータを検証する
func (c Config) Validate() error {
	if math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0) || c.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be finite and positive", c.LearningRate)
	}
	if c.Iterations < 1 {
		return errors.NewValidationError("iterations", "must be at least 1", c.Iterations)
	}
	if math.IsNaN(c.Tolerance) || c.Tolerance < 0 {
		return errors.NewValidationError("tolerance", "must be non-negative", c.Tolerance)
	}
	return nil
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.GetLogger()
}

// Option is a function that configures a Trainer or Predictor
type Option func(*Config)

// WithLearningRate sets the gradient descent step size
func WithLearningRate(lr float64) Option {
	return func(c *Config) {
		c.LearningRate = lr
	}
}

// WithIterations sets the exact number of updates
func WithIterations(n int) Option {
	return func(c *Config) {
		c.Iterations = n
	}
}

// WithTolerance sets the gradient norm above which a ConvergenceWarning is emitted
func WithTolerance(tol float64) Option {
	return func(c *Config) {
		c.Tolerance = tol
	}
}

// WithLossHistory enables recording the cost before every update
func WithLossHistory(record bool) Option {
	return func(c *Config) {
		c.RecordLoss = record
	}
}

// WithLogger sets the logger
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithObserver sets the observer notified after training and prediction
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

// WithConfig replaces the whole configuration
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

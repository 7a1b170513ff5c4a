package linear

import (
	"fmt"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/core/parallel"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/preprocessing"
)

// Sample は (走行距離, 価格) の1組
type Sample struct {
	X float64
	Y float64
}

// Model は price = Theta0 + Theta1 * mileage を表す単回帰モデル
// ゼロ値は係数 (0, 0) の既定モデル
type Model struct {
	model.BaseEstimator

	// Theta0 は元の単位での切片
	Theta0 float64

	// Theta1 は元の単位での傾き
	Theta1 float64

	// 学習で得られた場合のみ設定される
	bounds *preprocessing.Bounds
	config *Config
}

// NewModel は指定された係数のモデルを作成する
func NewModel(theta0, theta1 float64) *Model {
	return &Model{Theta0: theta0, Theta1: theta1}
}

// Deserialize は永続化された係数からモデルを復元する
// 復元されたモデルは学習済みとして扱う
func Deserialize(theta0, theta1 float64) *Model {
	m := NewModel(theta0, theta1)
	m.SetFitted()
	return m
}

// Predict は theta0 + theta1 * x を返す。入力は検証しない
func (m *Model) Predict(x float64) float64 {
	return m.Theta0 + m.Theta1*x
}

// PredictBatch は各入力に Predict を適用する
func (m *Model) PredictBatch(xs []float64) []float64 {
	out := make([]float64, len(xs))
	parallel.ParallelizeWithThreshold(len(xs), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = m.Predict(xs[i])
		}
	})
	return out
}

// Serialize は永続化する2つの係数を返す
func (m *Model) Serialize() (theta0, theta1 float64) {
	return m.Theta0, m.Theta1
}

// Bounds は学習時の正規化範囲を返す。学習以外で作られたモデルでは false
func (m *Model) Bounds() (preprocessing.Bounds, bool) {
	if m.bounds == nil {
		return preprocessing.Bounds{}, false
	}
	return *m.bounds, true
}

// ExportWeights はモデルを ModelWeights に変換する
// 学習で得られたモデルならハイパーパラメータと正規化範囲も含める
func (m *Model) ExportWeights() *model.ModelWeights {
	w := model.NewModelWeights(m.Theta0, m.Theta1)
	w.IsFitted = m.IsFitted()

	if m.config != nil {
		w.Hyperparameters = map[string]interface{}{
			"learning_rate": m.config.LearningRate,
			"iterations":    m.config.Iterations,
		}
	}
	if m.bounds != nil {
		w.Metadata = map[string]interface{}{
			"min_x": m.bounds.MinX,
			"max_x": m.bounds.MaxX,
			"min_y": m.bounds.MinY,
			"max_y": m.bounds.MaxY,
		}
	}
	return w
}

// ImportWeights は ModelWeights から係数を読み込む
func (m *Model) ImportWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError("Model.ImportWeights", "weights cannot be nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}

	m.Theta0 = w.Intercept
	m.Theta1 = w.Coefficients[0]
	m.bounds = boundsFromMetadata(w.Metadata)
	m.config = nil

	if lr, ok := w.Hyperparameters["learning_rate"].(float64); ok {
		cfg := DefaultConfig()
		cfg.LearningRate = lr
		if iters, ok := w.Hyperparameters["iterations"].(float64); ok {
			cfg.Iterations = int(iters)
		} else if iters, ok := w.Hyperparameters["iterations"].(int); ok {
			cfg.Iterations = iters
		}
		m.config = &cfg
	}

	m.Reset()
	if w.IsFitted {
		m.SetFitted()
	}
	return nil
}

// String はモデルの文字列表現を返す
func (m *Model) String() string {
	return fmt.Sprintf("LinearRegression(theta0=%g, theta1=%g)", m.Theta0, m.Theta1)
}

func boundsFromMetadata(meta map[string]interface{}) *preprocessing.Bounds {
	keys := []string{"min_x", "max_x", "min_y", "max_y"}
	vals := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := meta[k].(float64)
		if !ok {
			return nil
		}
		vals[i] = v
	}
	return &preprocessing.Bounds{MinX: vals[0], MaxX: vals[1], MinY: vals[2], MaxY: vals[3]}
}

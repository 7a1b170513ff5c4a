package linear

import (
	"math"

	"github.com/YuminosukeSato/carprice/metrics"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Evaluation はサンプルに対するモデルの誤差指標
type Evaluation struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`

	// R2 は価格がすべて等しいと定義できないので NaN になる
	R2 float64 `json:"r2"`
}

// Evaluate はサンプルに対する MSE, RMSE, MAE, R² を計算する
func (m *Model) Evaluate(samples []Sample) (Evaluation, error) {
	yTrue, yPred, err := m.vectors(samples)
	if err != nil {
		return Evaluation{}, err
	}

	mse, err := metrics.MSE(yTrue, yPred)
	if err != nil {
		return Evaluation{}, err
	}
	mae, err := metrics.MAE(yTrue, yPred)
	if err != nil {
		return Evaluation{}, err
	}

	r2, err := metrics.R2Score(yTrue, yPred)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("r2_score", "constant target values", math.NaN()))
		r2 = math.NaN()
	}

	return Evaluation{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}

// Score はモデルの決定係数（R²）を計算する
func (m *Model) Score(samples []Sample) (float64, error) {
	yTrue, yPred, err := m.vectors(samples)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yPred)
}

func (m *Model) vectors(samples []Sample) (yTrue, yPred *mat.VecDense, err error) {
	if len(samples) == 0 {
		return nil, nil, errors.NewModelError("Model.Evaluate", "empty data", errors.ErrEmptyData)
	}

	n := len(samples)
	yTrue = mat.NewVecDense(n, nil)
	yPred = mat.NewVecDense(n, nil)
	for i, s := range samples {
		yTrue.SetVec(i, s.Y)
		yPred.SetVec(i, m.Predict(s.X))
	}
	return yTrue, yPred, nil
}

// LeastSquares は最小二乗法の閉形式解を返す
// 学習には使わず、勾配降下の結果を比べる基準として使う
func LeastSquares(samples []Sample) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.NewModelError("LeastSquares", "empty data", errors.ErrEmptyData)
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.X, s.Y
	}
	if floats.Min(xs) == floats.Max(xs) {
		return nil, errors.NewDegenerateAxisError("LeastSquares", "x", xs[0])
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return NewModel(alpha, beta), nil
}

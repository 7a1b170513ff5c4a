package linear

import (
	"math"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// PredictPrice は走行距離から価格を予測する
// 負の値、NaN、Inf は InvalidInputError になる。m が nil なら既定モデル (0, 0) として扱う
func PredictPrice(m *Model, mileage float64) (float64, error) {
	if err := validateMileage(mileage); err != nil {
		return 0, err
	}
	if m == nil {
		return 0, nil
	}
	return m.Predict(mileage), nil
}

func validateMileage(mileage float64) error {
	switch {
	case math.IsNaN(mileage) || math.IsInf(mileage, 0):
		return errors.NewInvalidInputError("PredictPrice", "mileage", mileage, "must be a finite number")
	case mileage < 0:
		return errors.NewInvalidInputError("PredictPrice", "mileage", mileage, "must not be negative")
	}
	return nil
}

// Predictor はモデルにロガーとObserverを組み合わせた推論器
type Predictor struct {
	model *Model
	cfg   Config
}

// NewPredictor は新しいPredictorを作成する。m が nil なら既定モデル (0, 0) を使う
func NewPredictor(m *Model, opts ...Option) *Predictor {
	if m == nil {
		m = &Model{}
	}
	return &Predictor{model: m, cfg: newConfig(opts)}
}

// Model は推論に使うモデルを返す
func (p *Predictor) Model() *Model {
	return p.model
}

// Predict は PredictPrice と同じ検証を行ってから予測する
func (p *Predictor) Predict(mileage float64) (float64, error) {
	logger := p.cfg.logger()

	price, err := PredictPrice(p.model, mileage)
	if p.cfg.Observer != nil {
		p.cfg.Observer.ObservePrediction(err)
	}
	if err != nil {
		logger.Warn("Prediction rejected", err,
			log.OperationKey, log.OperationPredict,
			log.InputKey, mileage,
			log.ErrorCodeKey, log.ErrorInvalidInput,
		)
		return 0, err
	}

	logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.InputKey, mileage,
		log.PredictionKey, price,
	)
	return price, nil
}

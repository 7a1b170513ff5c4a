package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// ModelTypeLinearRegression は単回帰モデルの種類名
const ModelTypeLinearRegression = "LinearRegression"

// WeightsVersion はJSON形式のバージョン（互換性チェック用）
const WeightsVersion = "1.0"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン
	Version string `json:"version"`

	// Coefficients は傾き theta1 を1要素だけ持つ
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片 theta0
	Intercept float64 `json:"intercept"`

	// Hyperparameters は学習時のハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// Metadata は学習時の統計（正規化の範囲、最終損失など）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted は学習によって得られた係数かどうか
	IsFitted bool `json:"is_fitted"`
}

// NewModelWeights は係数だけを持つ ModelWeights を作成する
func NewModelWeights(theta0, theta1 float64) *ModelWeights {
	return &ModelWeights{
		ModelType:    ModelTypeLinearRegression,
		Version:      WeightsVersion,
		Coefficients: []float64{theta1},
		Intercept:    theta0,
		IsFitted:     true,
	}
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType != ModelTypeLinearRegression {
		return errors.NewValidationError("model_type", "unsupported model type", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "version is required", mw.Version)
	}
	if len(mw.Coefficients) != 1 {
		return errors.NewValidationError("coefficients", "exactly one coefficient is required", len(mw.Coefficients))
	}
	if !errors.IsFinite(mw.Intercept) || !errors.IsFinite(mw.Coefficients[0]) {
		return errors.NewValidationError("coefficients", "must be finite", []float64{mw.Intercept, mw.Coefficients[0]})
	}
	return nil
}

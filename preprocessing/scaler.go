package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Normalize は値を min-max 正規化する
//
//	(value - min) / (max - min)
//
// 範囲外の値はクリップしない。max == min の場合の結果は未定義（Inf/NaN）なので、
// 呼び出し側は ComputeBounds で事前に検証すること。
func Normalize(value, min, max float64) float64 {
	return (value - min) / (max - min)
}

// Denormalize は Normalize の逆変換
//
//	value * (max - min) + min
func Denormalize(value, min, max float64) float64 {
	return value*(max-min) + min
}

// Bounds は学習データから一度だけ求める4つのスカラー
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// ComputeBounds は x と y それぞれの最小値・最大値を独立に求める
//
// 戻り値:
//   - Bounds: 各軸の最小値・最大値
//   - error: 空データの場合は ErrEmptyData、
//     どちらかの軸の値がすべて等しい場合は DegenerateAxisError
func ComputeBounds(xs, ys []float64) (Bounds, error) {
	if len(xs) == 0 || len(ys) == 0 {
		return Bounds{}, errors.NewModelError("ComputeBounds", "empty data", errors.ErrEmptyData)
	}
	if len(xs) != len(ys) {
		return Bounds{}, errors.NewDimensionError("ComputeBounds", len(xs), len(ys), 0)
	}

	b := Bounds{
		MinX: floats.Min(xs),
		MaxX: floats.Max(xs),
		MinY: floats.Min(ys),
		MaxY: floats.Max(ys),
	}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate は両軸の範囲が正であることを確認する
func (b Bounds) Validate() error {
	if b.MinX == b.MaxX {
		return errors.NewDegenerateAxisError("ComputeBounds", "x", b.MinX)
	}
	if b.MinY == b.MaxY {
		return errors.NewDegenerateAxisError("ComputeBounds", "y", b.MinY)
	}
	return nil
}

// RangeX は max_x - min_x
func (b Bounds) RangeX() float64 { return b.MaxX - b.MinX }

// RangeY は max_y - min_y
func (b Bounds) RangeY() float64 { return b.MaxY - b.MinY }

// String は Bounds の文字列表現を返す
func (b Bounds) String() string {
	return fmt.Sprintf("Bounds(x=[%g, %g], y=[%g, %g])", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// MinMaxScaler は1次元データを [0, 1] にスケーリングする推定器
// Fit で最小値・最大値を記憶し、Transform / InverseTransform で
// Normalize / Denormalize を各要素に適用する
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin float64

	// DataMax は学習データの最大値
	DataMax float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler()
//	scaled, err := scaler.FitTransform(mileages)
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit は最小値・最大値を計算する
//
// 戻り値:
//   - error: 空データ、または値がすべて等しい場合
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	min, max := floats.Min(values), floats.Max(values)
	if min == max {
		return errors.NewDegenerateAxisError("MinMaxScaler.Fit", "feature", min)
	}

	s.DataMin = min
	s.DataMax = max
	s.SetFitted()
	return nil
}

// Transform は学習済みの範囲で各値を正規化する
func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = Normalize(v, s.DataMin, s.DataMax)
	}
	return result, nil
}

// FitTransform は学習してから同じデータを変換する
func (s *MinMaxScaler) FitTransform(values []float64) ([]float64, error) {
	if err := s.Fit(values); err != nil {
		return nil, err
	}
	return s.Transform(values)
}

// InverseTransform は正規化済みの値を元のスケールに戻す
func (s *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = Denormalize(v, s.DataMin, s.DataMax)
	}
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *MinMaxScaler) String() string {
	if !s.IsFitted() {
		return "MinMaxScaler()"
	}
	return fmt.Sprintf("MinMaxScaler(data_min=%g, data_max=%g)", s.DataMin, s.DataMax)
}

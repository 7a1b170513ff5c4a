package linear

import (
	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// LoadModel は永続化された係数からモデルを復元する
//
// 何も保存されていない (errors.ErrNoState) 場合はエラーにせず、
// 既定モデル (0, 0) を返す。それ以外のエラーはそのまま返す。
// loader が model.WeightsLoader も実装していれば、ハイパーパラメータと
// 正規化範囲も読み込む。
func LoadModel(loader model.CoefficientLoader) (*Model, error) {
	if wl, ok := loader.(model.WeightsLoader); ok {
		w, err := wl.LoadWeights()
		if err != nil {
			if errors.Is(err, errors.ErrNoState) {
				return &Model{}, nil
			}
			return nil, err
		}
		m := &Model{}
		if err := m.ImportWeights(w); err != nil {
			return nil, err
		}
		// 保存されている係数は IsFitted の値にかかわらず既存の状態として扱う
		m.SetFitted()
		return m, nil
	}

	theta0, theta1, err := loader.LoadCoefficients()
	if err != nil {
		if errors.Is(err, errors.ErrNoState) {
			return &Model{}, nil
		}
		return nil, err
	}
	return Deserialize(theta0, theta1), nil
}

// SaveModel はモデルの係数を書き込む
// writer が model.WeightsWriter なら ExportWeights の内容をすべて保存する
func SaveModel(writer model.CoefficientWriter, m *Model) error {
	if m == nil {
		return errors.NewValueError("SaveModel", "model cannot be nil")
	}
	if ww, ok := writer.(model.WeightsWriter); ok {
		return ww.WriteWeights(m.ExportWeights())
	}
	return writer.WriteCoefficients(m.Serialize())
}

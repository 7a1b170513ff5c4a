package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// CoefficientLoader は永続化された (theta0, theta1) を読み込む
// 何も保存されていない場合は errors.ErrNoState を返す
type CoefficientLoader interface {
	LoadCoefficients() (theta0, theta1 float64, err error)
}

// CoefficientWriter は (theta0, theta1) を永続化する
type CoefficientWriter interface {
	WriteCoefficients(theta0, theta1 float64) error
}

// WeightsWriter は係数に加えてハイパーパラメータなどのメタデータも保存できる書き込み先
type WeightsWriter interface {
	WriteWeights(w *ModelWeights) error
}

// WeightsLoader はメタデータ付きの ModelWeights を読み込める読み込み元
type WeightsLoader interface {
	LoadWeights() (*ModelWeights, error)
}

// CoefficientStore は読み書き両方を提供する
type CoefficientStore interface {
	CoefficientLoader
	CoefficientWriter
}

// EncodeRecord は係数を "theta0,theta1" 形式の1行で書き出す
// 'g' と精度 -1 を使うので、DecodeRecord で読み戻すとビット単位で一致する
func EncodeRecord(w io.Writer, theta0, theta1 float64) error {
	record := strconv.FormatFloat(theta0, 'g', -1, 64) + "," + strconv.FormatFloat(theta1, 'g', -1, 64) + "\n"
	if _, err := io.WriteString(w, record); err != nil {
		return errors.Wrap(err, "failed to write coefficient record")
	}
	return nil
}

// DecodeRecord は EncodeRecord の逆変換
// 最初の行だけを読み、前後の空白は無視する
func DecodeRecord(r io.Reader) (theta0, theta1 float64, err error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, 0, errors.Wrap(err, "failed to read coefficient record")
		}
		return 0, 0, errors.NewModelError("DecodeRecord", "empty coefficient record", nil)
	}

	fields := strings.Split(strings.TrimSpace(scanner.Text()), ",")
	if len(fields) != 2 {
		return 0, 0, errors.NewModelError("DecodeRecord",
			fmt.Sprintf("expected 2 comma separated values, got %d", len(fields)), nil)
	}

	theta0, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, errors.NewModelError("DecodeRecord", "invalid theta0", err)
	}
	theta1, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, 0, errors.NewModelError("DecodeRecord", "invalid theta1", err)
	}
	return theta0, theta1, nil
}

// 保存形式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewStore は形式に応じたファイルストアを作成する
// format が空なら拡張子 .json で JSONStore、それ以外は TextStore を選ぶ
func NewStore(path, format string) (CoefficientStore, error) {
	if format == "" {
		format = FormatText
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = FormatJSON
		}
	}

	switch strings.ToLower(format) {
	case FormatText:
		return NewTextStore(path), nil
	case FormatJSON:
		return NewJSONStore(path), nil
	default:
		return nil, errors.NewValidationError("format", "must be text or json", format)
	}
}

// TextStore は係数を1行のテキストファイル（例: thetas.txt）に保存する
type TextStore struct {
	Path string
}

// NewTextStore は新しいTextStoreを作成する
func NewTextStore(path string) *TextStore {
	return &TextStore{Path: path}
}

// LoadCoefficients はファイルから係数を読み込む
// ファイルが存在しない場合は errors.ErrNoState を返す
func (s *TextStore) LoadCoefficients() (float64, float64, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errors.Wrapf(errors.ErrNoState, "%s", s.Path)
		}
		return 0, 0, errors.Wrapf(err, "failed to open %s", s.Path)
	}
	defer file.Close()

	theta0, theta1, err := DecodeRecord(file)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to load %s", s.Path)
	}
	return theta0, theta1, nil
}

// WriteCoefficients は係数をファイルに書き込む
func (s *TextStore) WriteCoefficients(theta0, theta1 float64) error {
	return writeAtomic(s.Path, func(w io.Writer) error {
		return EncodeRecord(w, theta0, theta1)
	})
}

// JSONStore は係数を ModelWeights のJSON文書として保存する
type JSONStore struct {
	Path string
}

// NewJSONStore は新しいJSONStoreを作成する
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{Path: path}
}

// LoadWeights はJSON文書全体を読み込む
func (s *JSONStore) LoadWeights() (*ModelWeights, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNoState, "%s", s.Path)
		}
		return nil, errors.Wrapf(err, "failed to read %s", s.Path)
	}

	weights := &ModelWeights{}
	if err := weights.FromJSON(data); err != nil {
		return nil, errors.NewModelError("JSONStore.LoadWeights", "invalid json", err)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return weights, nil
}

// LoadCoefficients は CoefficientLoader を実装する
func (s *JSONStore) LoadCoefficients() (float64, float64, error) {
	weights, err := s.LoadWeights()
	if err != nil {
		return 0, 0, err
	}
	return weights.Intercept, weights.Coefficients[0], nil
}

// WriteCoefficients はメタデータなしの ModelWeights を書き込む
func (s *JSONStore) WriteCoefficients(theta0, theta1 float64) error {
	return s.WriteWeights(NewModelWeights(theta0, theta1))
}

// WriteWeights は WeightsWriter を実装する
func (s *JSONStore) WriteWeights(w *ModelWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	data, err := w.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode model weights")
	}
	return writeAtomic(s.Path, func(out io.Writer) error {
		_, err := out.Write(append(data, '\n'))
		return err
	})
}

// MemoryStore はメモリ上に係数を保持する。テストや組み込み用途向け
type MemoryStore struct {
	mu     sync.RWMutex
	stored bool
	theta0 float64
	theta1 float64
}

// NewMemoryStore は空のMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadCoefficients は保存済みの係数を返す。未保存なら errors.ErrNoState
func (s *MemoryStore) LoadCoefficients() (float64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.stored {
		return 0, 0, errors.ErrNoState
	}
	return s.theta0, s.theta1, nil
}

// WriteCoefficients は係数を保存する
func (s *MemoryStore) WriteCoefficients(theta0, theta1 float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theta0, s.theta1, s.stored = theta0, theta1, true
	return nil
}

// writeAtomic は同じディレクトリの一時ファイルに書いてから rename する
// 途中で失敗しても既存のファイルは壊れない
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

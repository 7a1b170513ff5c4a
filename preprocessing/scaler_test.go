package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		min   float64
		max   float64
		want  float64
	}{
		{name: "lower bound", value: 10, min: 10, max: 20, want: 0},
		{name: "upper bound", value: 20, min: 10, max: 20, want: 1},
		{name: "midpoint", value: 15, min: 10, max: 20, want: 0.5},
		{name: "below range is not clamped", value: 0, min: 10, max: 20, want: -1},
		{name: "above range is not clamped", value: 40, min: 10, max: 20, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Normalize(tt.value, tt.min, tt.max), 1e-12)
		})
	}
}

func TestDenormalizeRoundTrip(t *testing.T) {
	ranges := [][2]float64{
		{0, 1},
		{22899, 240000},
		{-50, 50},
		{1e-3, 2e-3},
		{3650, 8290},
	}
	values := []float64{-1e5, -3.5, 0, 0.25, 1, 12345.678, 240000, 1e7}

	for _, r := range ranges {
		for _, v := range values {
			got := Denormalize(Normalize(v, r[0], r[1]), r[0], r[1])
			tol := 1e-9 * math.Max(1, math.Abs(v))
			assert.InDelta(t, v, got, tol, "range %v value %v", r, v)
		}
	}
}

func TestComputeBounds(t *testing.T) {
	b, err := ComputeBounds([]float64{240000, 22899, 139800}, []float64{3650, 7990, 4400})
	require.NoError(t, err)
	assert.Equal(t, Bounds{MinX: 22899, MaxX: 240000, MinY: 3650, MaxY: 7990}, b)
	assert.Equal(t, 240000.0-22899.0, b.RangeX())
	assert.Equal(t, 7990.0-3650.0, b.RangeY())
	assert.Equal(t, "Bounds(x=[22899, 240000], y=[3650, 7990])", b.String())
}

func TestComputeBoundsErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ComputeBounds(nil, nil)
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := ComputeBounds([]float64{1, 2}, []float64{1})
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("constant x", func(t *testing.T) {
		_, err := ComputeBounds([]float64{5, 5}, []float64{100, 200})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrDegenerateAxis))

		var axisErr *errors.DegenerateAxisError
		require.True(t, errors.As(err, &axisErr))
		assert.Equal(t, "x", axisErr.Axis)
		assert.Equal(t, 5.0, axisErr.Value)
	})

	t.Run("constant y", func(t *testing.T) {
		_, err := ComputeBounds([]float64{1, 2, 3}, []float64{7, 7, 7})
		var axisErr *errors.DegenerateAxisError
		require.True(t, errors.As(err, &axisErr))
		assert.Equal(t, "y", axisErr.Axis)
	})
}

func TestMinMaxScaler(t *testing.T) {
	scaler := NewMinMaxScaler()
	assert.Equal(t, "MinMaxScaler()", scaler.String())

	_, err := scaler.Transform([]float64{1})
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))

	_, err = scaler.InverseTransform([]float64{1})
	require.Error(t, err)

	data := []float64{2, 4, 6, 10}
	scaled, err := scaler.FitTransform(data)
	require.NoError(t, err)
	assert.True(t, scaler.IsFitted())
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 1}, scaled, 1e-12)

	restored, err := scaler.InverseTransform(scaled)
	require.NoError(t, err)
	assert.InDeltaSlice(t, data, restored, 1e-12)

	assert.Equal(t, "MinMaxScaler(data_min=2, data_max=10)", scaler.String())
}

func TestMinMaxScalerFitErrors(t *testing.T) {
	scaler := NewMinMaxScaler()
	assert.True(t, errors.Is(scaler.Fit(nil), errors.ErrEmptyData))
	assert.True(t, errors.Is(scaler.Fit([]float64{3, 3}), errors.ErrDegenerateAxis))
	assert.False(t, scaler.IsFitted())
}

package dpmix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestApproxEqualScalar(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"Identical", 1.5, 1.5, true},
		{"WithinRel", 1000, 1000.0001, true},
		{"BeyondRel", 1000, 1000.1, false},
		{"BothZero", 0, 0, true},
		{"ZeroVsTiny", 0, 1e-9, true},
		{"ZeroVsLarge", 0, 1, false},
		{"NegativesClose", -1000, -1000.0001, true},
		{"NegativesApart", -1000, -1001, false},
		{"OppositeSigns", 1, -1, false},
		{"OppositeSignsTiny", 1e-9, -1e-9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApproxEqual(tt.a, tt.b, DefaultTol))
		})
	}
}

func TestApproxEqualSlice(t *testing.T) {
	eq, err := ApproxEqualSlice([]float64{1, 2, 3}, []float64{1, 2, 3.0000001}, DefaultTol)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = ApproxEqualSlice([]float64{1, 2, 3}, []float64{1, 2.1, 3}, DefaultTol)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestApproxEqualSliceLengthMismatch(t *testing.T) {
	_, err := ApproxEqualSlice([]float64{1, 2}, []float64{1, 2, 3}, DefaultTol)
	require.ErrorIs(t, err, ErrInvariant)
}

func TestParamApproxEqual(t *testing.T) {
	mean := mat.NewVecDense(2, []float64{1, 2})
	prec := mat.NewSymDense(2, []float64{2, 0.3, 0.3, 1.5})
	a := &MVNParam{Mean: mean, Prec: prec}

	same := &MVNParam{
		Mean: mat.NewVecDense(2, []float64{1, 2}),
		Prec: mat.NewSymDense(2, []float64{2, 0.3, 0.3, 1.5}),
	}
	eq, err := a.ApproxEqual(same, DefaultTol)
	require.NoError(t, err)
	assert.True(t, eq)

	shifted := &MVNParam{
		Mean: mat.NewVecDense(2, []float64{1, 2.5}),
		Prec: prec,
	}
	eq, err = a.ApproxEqual(shifted, DefaultTol)
	require.NoError(t, err)
	assert.False(t, eq)

	otherFamily := &UVNParam{Mean: 1, Prec: 2}
	eq, err = a.ApproxEqual(otherFamily, DefaultTol)
	require.NoError(t, err)
	assert.False(t, eq)

	wrongShape := &MVNParam{
		Mean: mat.NewVecDense(3, nil),
		Prec: mat.NewSymDense(3, nil),
	}
	_, err = a.ApproxEqual(wrongShape, DefaultTol)
	require.ErrorIs(t, err, ErrInvariant)
}

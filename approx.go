package dpmix

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

//DefaultTol is the tolerance used when matching cluster parameters during
//merge-by-identity recombination.
const DefaultTol = 1e-6

//ApproxEqual reports whether two scalars agree within tol, using a hybrid
//absolute-or-relative test so that zeros, negatives, and opposite signs are
//well defined.
func ApproxEqual(a, b, tol float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, tol, tol)
}

//ApproxEqualSlice compares two sequences elementwise, short-circuiting on the
//first mismatch. A length mismatch is bookkeeping corruption, not inequality.
func ApproxEqualSlice(a, b []float64, tol float64) (bool, error) {
	if len(a) != len(b) {
		return false, fmt.Errorf("%w: comparing sequences of length %d and %d", ErrInvariant, len(a), len(b))
	}
	for i := range a {
		if !ApproxEqual(a[i], b[i], tol) {
			return false, nil
		}
	}
	return true, nil
}

func approxEqualVec(a, b *mat.VecDense, tol float64) (bool, error) {
	if a.Len() != b.Len() {
		return false, fmt.Errorf("%w: comparing vectors of length %d and %d", ErrInvariant, a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if !ApproxEqual(a.AtVec(i), b.AtVec(i), tol) {
			return false, nil
		}
	}
	return true, nil
}

func approxEqualSym(a, b *mat.SymDense, tol float64) (bool, error) {
	ra, _ := a.Dims()
	rb, _ := b.Dims()
	if ra != rb {
		return false, fmt.Errorf("%w: comparing matrices of order %d and %d", ErrInvariant, ra, rb)
	}
	for i := 0; i < ra; i++ {
		for j := i; j < ra; j++ {
			if !ApproxEqual(a.At(i, j), b.At(i, j), tol) {
				return false, nil
			}
		}
	}
	return true, nil
}

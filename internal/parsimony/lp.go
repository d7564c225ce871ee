package parsimony

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// lpEpsilon absorbs simplex round-off before rounding the bound up.
const lpEpsilon = 1e-6

// lpBound returns ⌈z*⌉ where z* is the optimum of the LP relaxation
//
//	minimize Σ x_j  subject to  Cov·x - s = 1,  x, s ≥ 0
//
// in the standard form gonum's simplex expects. Cov has one row per key and
// one column per set. The upper bounds x ≤ 1 are omitted; they never bind
// at an optimum.
func lpBound(sets [][]int, nkeys int) (int, error) {
	nsets := len(sets)
	cols := nsets + nkeys
	a := mat.NewDense(nkeys, cols, nil)
	for j, keys := range sets {
		for _, k := range keys {
			a.Set(k, j, 1)
		}
	}
	for k := 0; k < nkeys; k++ {
		a.Set(k, nsets+k, -1)
	}
	c := make([]float64, cols)
	for j := 0; j < nsets; j++ {
		c[j] = 1
	}
	b := make([]float64, nkeys)
	for k := range b {
		b[k] = 1
	}

	opt, _, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(opt - lpEpsilon)), nil
}

// Package catalog defines the point-set container consumed by the
// correlation estimators: per-point 2D positions, a pair of field values
// (real or complex, e.g. a scalar convergence field or two shear
// components folded into one complex value), and optional weights.
package catalog

import (
	"fmt"
)

// PointSet is an ordered sequence of N points with two field values and
// an optional weight per point. All populated slices must have the same
// length; a nil W means every point carries unit weight.
type PointSet struct {
	// X, Y are the point positions.
	X, Y []float64

	// F1, F2 are the primary and secondary field values. For an
	// auto-correlation of a scalar field both hold the same values; for
	// shear-type statistics F2 is typically the conjugate of F1.
	F1, F2 []complex128

	// W holds the per-point weights, or nil for implicit unit weights.
	W []float64
}

// NewScalar builds a point set whose field is a real scalar, using f for
// both the primary and secondary field value. w may be nil.
func NewScalar(x, y, f []float64, w []float64) (*PointSet, error) {
	ff := make([]complex128, len(f))
	for i, v := range f {
		ff[i] = complex(v, 0)
	}
	p := &PointSet{X: x, Y: y, F1: ff, F2: ff, W: w}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewSpin2 builds a point set for a spin-2 auto statistic: the primary
// field is g and the secondary field its complex conjugate. w may be nil.
func NewSpin2(x, y []float64, g []complex128, w []float64) (*PointSet, error) {
	gc := make([]complex128, len(g))
	for i, v := range g {
		gc[i] = complex(real(v), -imag(v))
	}
	p := &PointSet{X: x, Y: y, F1: g, F2: gc, W: w}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewCountScalar builds a point set pairing a pure-count primary field
// (all ones) with the scalar field f, as used by count-scalar statistics.
func NewCountScalar(x, y, f []float64, w []float64) (*PointSet, error) {
	ones := make([]complex128, len(f))
	ff := make([]complex128, len(f))
	for i, v := range f {
		ones[i] = 1
		ff[i] = complex(v, 0)
	}
	p := &PointSet{X: x, Y: y, F1: ones, F2: ff, W: w}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewCount builds a point set for a pure occurrence statistic: both
// fields are identically one, so the accumulated statistic reduces to
// the pair-weight total.
func NewCount(x, y []float64, w []float64) (*PointSet, error) {
	ones := make([]complex128, len(x))
	for i := range ones {
		ones[i] = 1
	}
	p := &PointSet{X: x, Y: y, F1: ones, F2: ones, W: w}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of points.
func (p *PointSet) Len() int { return len(p.X) }

// HasWeights reports whether explicit weights are present.
func (p *PointSet) HasWeights() bool { return p.W != nil }

// Weight returns the weight of point i, 1 when weights are absent.
func (p *PointSet) Weight(i int) float64 {
	if p.W == nil {
		return 1
	}
	return p.W[i]
}

// Validate checks that every populated per-point slice has the same
// length and that weights are non-negative. It is the single hard
// failure class of the estimator: malformed shapes fail fast here,
// everything downstream propagates numerically.
func (p *PointSet) Validate() error {
	n := len(p.X)
	if len(p.Y) != n {
		return fmt.Errorf("catalog: x/y length mismatch: %d vs %d", n, len(p.Y))
	}
	if len(p.F1) != n {
		return fmt.Errorf("catalog: primary field length %d does not match %d points", len(p.F1), n)
	}
	if len(p.F2) != n {
		return fmt.Errorf("catalog: secondary field length %d does not match %d points", len(p.F2), n)
	}
	if p.W != nil {
		if len(p.W) != n {
			return fmt.Errorf("catalog: weight length %d does not match %d points", len(p.W), n)
		}
		for i, w := range p.W {
			if w < 0 {
				return fmt.Errorf("catalog: negative weight %g at index %d", w, i)
			}
		}
	}
	return nil
}

// SelfPairTotals returns the exact contribution of the diagonal pairs
// (i, i) to the zero-lag cell: the summed squared weights and the summed
// weighted statistic Re(F1[i]*F2[i])*w[i]^2. These are the quantities
// subtracted from the central cell in auto mode.
func (p *PointSet) SelfPairTotals() (sumWW, sumStat float64) {
	for i := range p.X {
		w := p.Weight(i)
		ww := w * w
		sumWW += ww
		sumStat += real(p.F1[i]*p.F2[i]) * ww
	}
	return sumWW, sumStat
}

// Package brute implements the exhaustive pairwise offset correlator:
// an exact two-point correlation estimate obtained by enumerating every
// ordered pair of points, binning each pair by its 2D positional offset
// and normalizing the accumulated weighted statistic by the accumulated
// pair weights. It is the ground-truth oracle against which the
// tree-based engine is validated; its cost is O(N*M) pairs per call.
package brute

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"corr2d/pkg/catalog"
	"corr2d/pkg/grid"
)

// Options configures one correlation pass.
type Options struct {
	// RMax is the maximum offset magnitude per axis; the histogram
	// covers [-RMax, RMax] on both axes.
	RMax float64

	// Bins is the number of cells per axis. It must be odd so the
	// zero-lag cell is centered exactly on offset (0, 0).
	Bins int

	// Auto declares that the two point sets denote the same underlying
	// points, enabling the self-pair correction of the zero-lag cell.
	// It is deliberately an explicit flag: whether two inputs coincide
	// is knowledge the caller has, not something inferred from object
	// identity or coincidentally equal values.
	Auto bool
}

// Result holds the outputs of a correlation pass, both in the
// (row = dy bin, col = dx bin) convention.
type Result struct {
	// Xi is the correlation estimate grid. Cells that received no pairs
	// hold a non-finite value.
	Xi *mat.Dense

	// Counts is the raw pair-weight grid.
	Counts *mat.Dense
}

// Correlate computes the exact binned two-point correlation between two
// (possibly identical) point sets.
//
// Every ordered pair (i, j) contributes its offset
// (xB[j]-xA[i], yB[j]-yA[i]) with pair weight wi*wj and statistic
// Re(F1A[i]*F2B[j])*wi*wj; offsets outside the histogram range are
// dropped. In auto mode the exact diagonal totals are subtracted from
// the zero-lag cell, since a point paired with itself must not
// contribute to the zero-lag estimate. The function is pure: it holds
// no state and mutates neither input.
func Correlate(a, b *catalog.PointSet, opts Options) (*Result, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("brute: first point set: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("brute: second point set: %w", err)
	}
	g, err := grid.NewOffsetGrid(opts.RMax, opts.Bins)
	if err != nil {
		return nil, fmt.Errorf("brute: %w", err)
	}
	if opts.Auto && a.Len() != b.Len() {
		return nil, fmt.Errorf("brute: auto mode with mismatched point counts: %d vs %d", a.Len(), b.Len())
	}

	acc := grid.NewPairAccumulator(g)
	for i := 0; i < a.Len(); i++ {
		xi, yi := a.X[i], a.Y[i]
		wi := a.Weight(i)
		f1 := a.F1[i]
		for j := 0; j < b.Len(); j++ {
			dx := b.X[j] - xi
			dy := b.Y[j] - yi
			ww := wi * b.Weight(j)
			acc.Add(dx, dy, ww, real(f1*b.F2[j])*ww)
		}
	}

	if opts.Auto {
		sumWW, sumStat := a.SelfPairTotals()
		acc.SubtractCenter(sumWW, sumStat)
	}

	return &Result{Xi: acc.Estimate(), Counts: acc.Counts()}, nil
}

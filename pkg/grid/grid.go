// Package grid implements the square 2D offset histogram shared by the
// correlation estimators: cell addressing over [-rmax, rmax]^2, the
// parallel count/statistic accumulation grids, and the normalization
// into a correlation estimate.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OffsetGrid describes a bins x bins histogram of 2D separation vectors
// covering [-rmax, rmax] on both axes with evenly spaced cell edges.
//
// The bin count must be odd so that a single cell is centered exactly on
// offset (0, 0); that zero-lag cell is the target of the self-pair
// correction, and an even count would silently misplace it. The
// constructor therefore rejects even counts outright.
type OffsetGrid struct {
	rmax float64
	bins int
}

// NewOffsetGrid validates the histogram configuration and returns the
// grid descriptor.
func NewOffsetGrid(rmax float64, bins int) (*OffsetGrid, error) {
	if !(rmax > 0) {
		return nil, fmt.Errorf("grid: rmax must be positive, got %g", rmax)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("grid: bins must be positive, got %d", bins)
	}
	if bins%2 == 0 {
		return nil, fmt.Errorf("grid: bins must be odd so a cell is centered on zero offset, got %d", bins)
	}
	return &OffsetGrid{rmax: rmax, bins: bins}, nil
}

// RMax returns the per-axis offset range limit.
func (g *OffsetGrid) RMax() float64 { return g.rmax }

// Bins returns the number of cells per axis.
func (g *OffsetGrid) Bins() int { return g.bins }

// Center returns the index of the zero-lag cell on either axis.
func (g *OffsetGrid) Center() int { return g.bins / 2 }

// CellIndex maps an offset (dx, dy) to its cell indices. Offsets outside
// [-rmax, rmax] on either axis are dropped (ok is false); an offset
// exactly on the upper edge falls in the last cell.
func (g *OffsetGrid) CellIndex(dx, dy float64) (ix, iy int, ok bool) {
	ix, ok = g.axisIndex(dx)
	if !ok {
		return 0, 0, false
	}
	iy, ok = g.axisIndex(dy)
	if !ok {
		return 0, 0, false
	}
	return ix, iy, true
}

func (g *OffsetGrid) axisIndex(d float64) (int, bool) {
	if d < -g.rmax || d > g.rmax {
		return 0, false
	}
	i := int((d + g.rmax) / (2 * g.rmax) * float64(g.bins))
	if i == g.bins {
		i = g.bins - 1
	}
	return i, true
}

// PairAccumulator holds the two parallel accumulation grids of one
// correlation pass: summed pair weights and the summed per-pair
// statistic. Grids are indexed (xbin, ybin) during accumulation; the
// output accessors transpose to the caller convention (row = dy bin,
// col = dx bin).
type PairAccumulator struct {
	grid   *OffsetGrid
	counts *mat.Dense
	stat   *mat.Dense
}

// NewPairAccumulator returns an empty accumulator over g.
func NewPairAccumulator(g *OffsetGrid) *PairAccumulator {
	n := g.Bins()
	return &PairAccumulator{
		grid:   g,
		counts: mat.NewDense(n, n, nil),
		stat:   mat.NewDense(n, n, nil),
	}
}

// Grid returns the offset grid descriptor.
func (a *PairAccumulator) Grid() *OffsetGrid { return a.grid }

// Add accumulates one pair with offset (dx, dy), pair weight w and
// weighted statistic s. Pairs outside the histogram range are ignored.
func (a *PairAccumulator) Add(dx, dy, w, s float64) {
	ix, iy, ok := a.grid.CellIndex(dx, dy)
	if !ok {
		return
	}
	a.counts.Set(ix, iy, a.counts.At(ix, iy)+w)
	a.stat.Set(ix, iy, a.stat.At(ix, iy)+s)
}

// SubtractCenter removes the given totals from the zero-lag cell. This
// is the self-pair correction: an exhaustive enumeration counts every
// point against itself at zero offset, and those diagonal terms must not
// contribute to the zero-lag estimate.
func (a *PairAccumulator) SubtractCenter(w, s float64) {
	c := a.grid.Center()
	a.counts.Set(c, c, a.counts.At(c, c)-w)
	a.stat.Set(c, c, a.stat.At(c, c)-s)
}

// Counts returns the pair-weight grid, transposed into the caller
// convention (row = dy bin, col = dx bin).
func (a *PairAccumulator) Counts() *mat.Dense {
	return mat.DenseCopyOf(a.counts.T())
}

// Estimate divides the statistic grid by the count grid elementwise and
// returns the transposed result. Cells that received no pairs yield a
// non-finite value, which is propagated rather than raised.
func (a *PairAccumulator) Estimate() *mat.Dense {
	n := a.grid.Bins()
	xi := mat.NewDense(n, n, nil)
	for ix := 0; ix < n; ix++ {
		for iy := 0; iy < n; iy++ {
			xi.Set(iy, ix, a.stat.At(ix, iy)/a.counts.At(ix, iy))
		}
	}
	return xi
}

// MaxAbsDiff returns the largest elementwise absolute difference between
// two equally shaped grids. Cells where both values are NaN, or both the
// same infinity, count as equal; a non-finite value on one side only
// yields +Inf.
func MaxAbsDiff(a, b *mat.Dense) (float64, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return 0, fmt.Errorf("grid: dimension mismatch: %dx%d vs %dx%d", ra, ca, rb, cb)
	}
	max := 0.0
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			va, vb := a.At(i, j), b.At(i, j)
			if math.IsNaN(va) && math.IsNaN(vb) {
				continue
			}
			if math.IsNaN(va) || math.IsNaN(vb) {
				return math.Inf(1), nil
			}
			if math.IsInf(va, 0) || math.IsInf(vb, 0) {
				if va == vb {
					continue
				}
				return math.Inf(1), nil
			}
			d := math.Abs(va - vb)
			if d > max {
				max = d
			}
		}
	}
	return max, nil
}

// MaxRelDiff returns the largest elementwise relative difference
// |a-b|/|a|, skipping cells where a is zero or either value is not
// finite.
func MaxRelDiff(a, b *mat.Dense) (float64, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return 0, fmt.Errorf("grid: dimension mismatch: %dx%d vs %dx%d", ra, ca, rb, cb)
	}
	max := 0.0
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			va, vb := a.At(i, j), b.At(i, j)
			if va == 0 || math.IsNaN(va) || math.IsInf(va, 0) ||
				math.IsNaN(vb) || math.IsInf(vb, 0) {
				continue
			}
			d := math.Abs(va-vb) / math.Abs(va)
			if d > max {
				max = d
			}
		}
	}
	return max, nil
}

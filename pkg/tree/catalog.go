// Package tree implements an exact pair-counting correlation engine
// over the Cartesian "TwoD" offset metric. Catalogs are indexed with a
// kd-tree and each correlation object bins pairs into the same square
// offset histogram as the brute-force estimator; with zero bin slop the
// binning is exact, so the two engines must agree cell for cell.
//
// Only the exact regime is supported: the TwoD metric with zero bin
// slop. Approximate counting and other metrics are rejected outright.
package tree

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Catalog is an indexed set of points with optional scalar field values,
// optional spin-2 field components and optional weights.
type Catalog struct {
	x, y []float64
	k    []float64
	g    []complex128
	w    []float64
	tree *kdtree.Tree
}

// NewCatalog builds a catalog from positions and optional per-point
// data; k, g and w may each be nil. Populated slices must match the
// position length.
func NewCatalog(x, y, k []float64, g []complex128, w []float64) (*Catalog, error) {
	n := len(x)
	if len(y) != n {
		return nil, fmt.Errorf("tree: x/y length mismatch: %d vs %d", n, len(y))
	}
	if k != nil && len(k) != n {
		return nil, fmt.Errorf("tree: scalar field length %d does not match %d points", len(k), n)
	}
	if g != nil && len(g) != n {
		return nil, fmt.Errorf("tree: spin-2 field length %d does not match %d points", len(g), n)
	}
	if w != nil {
		if len(w) != n {
			return nil, fmt.Errorf("tree: weight length %d does not match %d points", len(w), n)
		}
		for i, wi := range w {
			if wi < 0 {
				return nil, fmt.Errorf("tree: negative weight %g at index %d", wi, i)
			}
		}
	}

	pts := make(points, n)
	for i := 0; i < n; i++ {
		pts[i] = point{x: x[i], y: y[i], idx: i}
	}
	return &Catalog{
		x:    x,
		y:    y,
		k:    k,
		g:    g,
		w:    w,
		tree: kdtree.New(pts, false),
	}, nil
}

// Len returns the number of points in the catalog.
func (c *Catalog) Len() int { return len(c.x) }

// weight returns the weight of point i, 1 when weights are absent.
func (c *Catalog) weight(i int) float64 {
	if c.w == nil {
		return 1
	}
	return c.w[i]
}

// point carries a position and its catalog index through the kd-tree.
type point struct {
	x, y float64
	idx  int
}

// Compare implements the kdtree.Comparable interface.
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the kd-tree.
func (p point) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

// points is a collection of point that satisfies kdtree.Interface.
type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{points: p, Dim: d}, kdtree.MedianOfMedians(pointPlane{points: p, Dim: d}))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for points.
type pointPlane struct {
	points
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.points[i].x < p.points[j].x
	case 1:
		return p.points[i].y < p.points[j].y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{points: p.points[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

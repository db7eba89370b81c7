package brute

import (
	"math"
	"testing"

	"corr2d/pkg/catalog"
	"corr2d/pkg/field"
	"corr2d/pkg/grid"
)

// testCatalog draws a small seeded random catalog with a correlated
// scalar field for property checks
func testCatalog(t *testing.T, n int, seed uint64) ([]float64, []float64, []float64) {
	t.Helper()
	gen := field.NewGenerator(seed)
	x := gen.Uniform(n, -10, 10)
	y := gen.Uniform(n, -10, 10)
	ell := field.CorrMatrix{{0.33, 0.09}, {-0.01, 0.26}}
	kappa, err := gen.CorrelatedField(x, y, ell, 2.3, 0.23)
	if err != nil {
		t.Fatalf("CorrelatedField failed: %v", err)
	}
	return x, y, kappa
}

// TestCorrelateHandComputed verifies the full pipeline on a two-point
// set whose grids can be written down by hand
func TestCorrelateHandComputed(t *testing.T) {
	// Points (0,0) with value 2 and (1,0) with value 3. Ordered pairs:
	// (0,0)->(0,0) offset (0,0) stat 4; (0,0)->(1,0) offset (1,0)
	// stat 6; (1,0)->(0,0) offset (-1,0) stat 6; (1,0)->(1,0) offset
	// (0,0) stat 9.
	ps, err := catalog.NewScalar([]float64{0, 1}, []float64{0, 0}, []float64{2, 3}, nil)
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}
	opts := Options{RMax: 1.5, Bins: 3}

	// Cross mode keeps the diagonal terms: center cell holds both
	// self-pairs, counts 2, statistic 13.
	res, err := Correlate(ps, ps, opts)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	if got := res.Counts.At(1, 1); got != 2 {
		t.Errorf("Expected center count 2, got %g", got)
	}
	if got := res.Xi.At(1, 1); got != 6.5 {
		t.Errorf("Expected center estimate 6.5, got %g", got)
	}
	// Offset (1,0) lands at row 1 (dy bin), column 2 (dx bin).
	if got := res.Counts.At(1, 2); got != 1 {
		t.Errorf("Expected counts[1,2]=1, got %g", got)
	}
	if got := res.Xi.At(1, 2); got != 6 {
		t.Errorf("Expected xi[1,2]=6, got %g", got)
	}
	if got := res.Xi.At(1, 0); got != 6 {
		t.Errorf("Expected xi[1,0]=6, got %g", got)
	}
	// Cells that received no pairs are undefined.
	if v := res.Xi.At(0, 0); !math.IsNaN(v) {
		t.Errorf("Expected NaN for empty cell, got %g", v)
	}

	// Auto mode removes exactly the diagonal: center becomes empty,
	// everything else is untouched.
	opts.Auto = true
	auto, err := Correlate(ps, ps, opts)
	if err != nil {
		t.Fatalf("Correlate auto failed: %v", err)
	}
	if got := auto.Counts.At(1, 1); got != 0 {
		t.Errorf("Expected corrected center count 0, got %g", got)
	}
	if v := auto.Xi.At(1, 1); !math.IsNaN(v) {
		t.Errorf("Expected NaN corrected center, got %g", v)
	}
	if got := auto.Counts.At(1, 2); got != 1 {
		t.Errorf("Self-pair correction leaked: counts[1,2]=%g", got)
	}
}

// TestValidationErrors verifies that malformed configurations and
// shapes fail fast
func TestValidationErrors(t *testing.T) {
	ps, err := catalog.NewScalar([]float64{0, 1}, []float64{0, 0}, []float64{2, 3}, nil)
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}

	if _, err := Correlate(ps, ps, Options{RMax: 1, Bins: 4}); err == nil {
		t.Errorf("Expected error for even bin count")
	}
	if _, err := Correlate(ps, ps, Options{RMax: 0, Bins: 3}); err == nil {
		t.Errorf("Expected error for zero rmax")
	}

	bad := &catalog.PointSet{
		X:  []float64{0, 1},
		Y:  []float64{0},
		F1: []complex128{1, 2},
		F2: []complex128{1, 2},
	}
	if _, err := Correlate(bad, ps, Options{RMax: 1, Bins: 3}); err == nil {
		t.Errorf("Expected error for mismatched input shapes")
	}
	if _, err := Correlate(ps, bad, Options{RMax: 1, Bins: 3}); err == nil {
		t.Errorf("Expected error for mismatched second input")
	}
}

// TestSelfPairExclusion verifies that removing the diagonal changes
// only the zero-lag cell
func TestSelfPairExclusion(t *testing.T) {
	x, y, kappa := testCatalog(t, 200, 7)
	ps, err := catalog.NewScalar(x, y, kappa, nil)
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}
	opts := Options{RMax: 10, Bins: 21}

	cross, err := Correlate(ps, ps, opts)
	if err != nil {
		t.Fatalf("Correlate cross failed: %v", err)
	}
	opts.Auto = true
	auto, err := Correlate(ps, ps, opts)
	if err != nil {
		t.Fatalf("Correlate auto failed: %v", err)
	}

	c := opts.Bins / 2
	n := float64(len(x))
	for i := 0; i < opts.Bins; i++ {
		for j := 0; j < opts.Bins; j++ {
			diff := cross.Counts.At(i, j) - auto.Counts.At(i, j)
			if i == c && j == c {
				if math.Abs(diff-n) > 1e-9 {
					t.Errorf("Expected center count reduced by %g, got %g", n, diff)
				}
			} else if diff != 0 {
				t.Errorf("Correction changed cell (%d,%d) by %g", i, j, diff)
			}
		}
	}
}

// TestWeightScaling verifies that scaling every weight by c multiplies
// the counts by c^2 and leaves the estimate unchanged
func TestWeightScaling(t *testing.T) {
	x, y, kappa := testCatalog(t, 150, 11)
	n := len(x)

	w := make([]float64, n)
	cw := make([]float64, n)
	const c = 3.5
	for i := range w {
		w[i] = 1
		cw[i] = c
	}

	base, err := catalog.NewScalar(x, y, kappa, w)
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}
	scaled, err := catalog.NewScalar(x, y, kappa, cw)
	if err != nil {
		t.Fatalf("NewScalar failed: %v", err)
	}

	opts := Options{RMax: 10, Bins: 21, Auto: true}
	resBase, err := Correlate(base, base, opts)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	resScaled, err := Correlate(scaled, scaled, opts)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	for i := 0; i < opts.Bins; i++ {
		for j := 0; j < opts.Bins; j++ {
			want := resBase.Counts.At(i, j) * c * c
			got := resScaled.Counts.At(i, j)
			if math.Abs(got-want) > 1e-7*math.Max(1, math.Abs(want)) {
				t.Errorf("counts[%d,%d]: expected %g, got %g", i, j, want, got)
			}

			xiBase := resBase.Xi.At(i, j)
			xiScaled := resScaled.Xi.At(i, j)
			if math.IsNaN(xiBase) != math.IsNaN(xiScaled) {
				t.Errorf("xi[%d,%d]: NaN pattern differs", i, j)
				continue
			}
			if !math.IsNaN(xiBase) && math.Abs(xiBase-xiScaled) > 1e-9 {
				t.Errorf("xi[%d,%d]: expected %g, got %g", i, j, xiBase, xiScaled)
			}
		}
	}
}

// TestCountSymmetry verifies the point symmetry of the count grid for
// an auto count-count statistic: every pair (i,j) has a mirror (j,i)
func TestCountSymmetry(t *testing.T) {
	gen := field.NewGenerator(13)
	x := gen.Uniform(300, -10, 10)
	y := gen.Uniform(300, -10, 10)

	ps, err := catalog.NewCount(x, y, nil)
	if err != nil {
		t.Fatalf("NewCount failed: %v", err)
	}
	res, err := Correlate(ps, ps, Options{RMax: 10, Bins: 21, Auto: true})
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	bins := 21
	for i := 0; i < bins; i++ {
		for j := 0; j < bins; j++ {
			a := res.Counts.At(i, j)
			b := res.Counts.At(bins-1-i, bins-1-j)
			if a != b {
				t.Errorf("counts[%d,%d]=%g is not mirrored by counts[%d,%d]=%g",
					i, j, a, bins-1-i, bins-1-j, b)
			}
		}
	}
}

// TestDeterminism verifies that identical seeds produce identical
// estimates
func TestDeterminism(t *testing.T) {
	run := func() ([]float64, []float64, []float64) {
		return testCatalog(t, 100, 99)
	}
	x1, y1, k1 := run()
	x2, y2, k2 := run()

	for i := range x1 {
		if x1[i] != x2[i] || y1[i] != y2[i] || k1[i] != k2[i] {
			t.Fatalf("Generation is not deterministic at index %d", i)
		}
	}

	ps1, _ := catalog.NewScalar(x1, y1, k1, nil)
	ps2, _ := catalog.NewScalar(x2, y2, k2, nil)
	opts := Options{RMax: 10, Bins: 21, Auto: true}
	r1, err := Correlate(ps1, ps1, opts)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	r2, err := Correlate(ps2, ps2, opts)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	d, err := grid.MaxAbsDiff(r1.Xi, r2.Xi)
	if err != nil {
		t.Fatalf("MaxAbsDiff failed: %v", err)
	}
	if d != 0 {
		t.Errorf("Expected bit-identical estimates, max abs diff %g", d)
	}
}

// TestComplexStatistic verifies that the statistic takes the real part
// of the field product with complex arithmetic semantics intact
func TestComplexStatistic(t *testing.T) {
	// Two points with purely imaginary fields: F1[0]*F2[1] = i * -2i = 2.
	ps := &catalog.PointSet{
		X:  []float64{0, 1},
		Y:  []float64{0, 0},
		F1: []complex128{1i, 2i},
		F2: []complex128{-1i, -2i},
	}
	res, err := Correlate(ps, ps, Options{RMax: 1.5, Bins: 3, Auto: true})
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	// Offset (1,0): statistic Re(1i * -2i) = 2; offset (-1,0):
	// Re(2i * -1i) = 2.
	if got := res.Xi.At(1, 2); got != 2 {
		t.Errorf("Expected xi[1,2]=2, got %g", got)
	}
	if got := res.Xi.At(1, 0); got != 2 {
		t.Errorf("Expected xi[1,0]=2, got %g", got)
	}
}

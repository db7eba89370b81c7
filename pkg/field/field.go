// Package field generates the synthetic inputs used to exercise the
// correlation estimators: uniformly scattered 2D positions and spatially
// correlated Gaussian random field values drawn from a Mahalanobis
// kernel, with optional additive measurement noise.
package field

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// CorrMatrix is the 2x2 correlation-length matrix defining the
// anisotropic kernel scale. It need not be symmetric; only its inverse
// enters the Mahalanobis distance.
type CorrMatrix [2][2]float64

// jitterLevels are the diagonal boosts attempted when the kernel matrix
// is not numerically positive definite. The kernel of densely scattered
// points is often semi-definite to machine precision, so a small jitter
// is usually required before the Cholesky factorization succeeds.
var jitterLevels = []float64{0, 1e-10, 1e-8, 1e-6, 1e-4}

// Generator produces deterministic synthetic catalogs from a fixed seed.
type Generator struct {
	src rand.Source
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with the given value. Two
// generators with the same seed produce identical draws in identical
// call order.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewSource(seed)
	return &Generator{src: src, rng: rand.New(src)}
}

// Uniform draws n values uniformly from [lo, hi).
func (g *Generator) Uniform(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + g.rng.Float64()*(hi-lo)
	}
	return out
}

// CorrelatedField draws one realization of a zero-mean Gaussian random
// field at the given positions. The field covariance between points i
// and j is amplitude^2 * exp(-d2/2) with d2 the squared Mahalanobis
// distance under ell; the diagonal is exactly amplitude^2. When noise is
// positive, independent N(0, noise) measurement noise is added to every
// point.
func (g *Generator) CorrelatedField(x, y []float64, ell CorrMatrix, amplitude, noise float64) ([]float64, error) {
	n := len(x)
	if len(y) != n {
		return nil, fmt.Errorf("field: x/y length mismatch: %d vs %d", n, len(y))
	}
	inv, err := invert2x2(ell)
	if err != nil {
		return nil, err
	}

	a2 := amplitude * amplitude
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, a2)
		for j := i + 1; j < n; j++ {
			dx := x[j] - x[i]
			dy := y[j] - y[i]
			d2 := dx*(inv[0][0]*dx+inv[0][1]*dy) + dy*(inv[1][0]*dx+inv[1][1]*dy)
			cov.SetSym(i, j, a2*math.Exp(-0.5*d2))
		}
	}

	normal, err := factorizeNormal(cov, g.src)
	if err != nil {
		return nil, err
	}
	sample := normal.Rand(nil)

	if noise > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: noise, Src: g.src}
		for i := range sample {
			sample[i] += dist.Rand()
		}
	}
	return sample, nil
}

// SpinField draws a spin-2 field: two independent correlated
// realizations combined into one complex value per point.
func (g *Generator) SpinField(x, y []float64, ell CorrMatrix, amplitude, noise float64) ([]complex128, error) {
	g1, err := g.CorrelatedField(x, y, ell, amplitude, noise)
	if err != nil {
		return nil, err
	}
	g2, err := g.CorrelatedField(x, y, ell, amplitude, noise)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(g1))
	for i := range out {
		out[i] = complex(g1[i], g2[i])
	}
	return out, nil
}

// factorizeNormal Cholesky-factorizes cov, boosting the diagonal through
// the jitter ladder until the factorization succeeds.
func factorizeNormal(cov *mat.SymDense, src rand.Source) (*distmv.Normal, error) {
	n := cov.SymmetricDim()
	mu := make([]float64, n)
	base := make([]float64, n)
	for i := 0; i < n; i++ {
		base[i] = cov.At(i, i)
	}
	var chol mat.Cholesky
	for _, jitter := range jitterLevels {
		for i := 0; i < n; i++ {
			cov.SetSym(i, i, base[i]+jitter)
		}
		if chol.Factorize(cov) {
			return distmv.NewNormalChol(mu, &chol, src), nil
		}
	}
	return nil, fmt.Errorf("field: kernel matrix is not positive definite even with diagonal jitter")
}

func invert2x2(m CorrMatrix) (CorrMatrix, error) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if det == 0 {
		return CorrMatrix{}, fmt.Errorf("field: singular correlation-length matrix")
	}
	return CorrMatrix{
		{m[1][1] / det, -m[0][1] / det},
		{-m[1][0] / det, m[0][0] / det},
	}, nil
}

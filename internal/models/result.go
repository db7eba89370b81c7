package models

// ComparisonResult records how closely a tree-engine grid matched the
// brute-force estimate for one validation scenario
type ComparisonResult struct {
	// Name identifies the scenario, e.g. "KK cross weighted"
	Name string

	// MaxAbsDiff is the largest elementwise absolute difference between
	// the two grids
	MaxAbsDiff float64

	// MaxRelDiff is the largest elementwise relative difference over
	// the finite, nonzero cells
	MaxRelDiff float64

	// Tolerance is the absolute tolerance the comparison was held to
	Tolerance float64

	// Passed reports whether MaxAbsDiff stayed within Tolerance
	Passed bool
}

// SyntheticCatalog bundles one generated validation input set
type SyntheticCatalog struct {
	// X, Y are the point positions
	X, Y []float64

	// Kappa is the correlated scalar field
	Kappa []float64

	// Gamma is the correlated spin-2 field
	Gamma []complex128

	// KappaErr is the per-point measurement error of Kappa
	KappaErr []float64

	// Weights is the inverse-variance weight array 1/KappaErr^2
	Weights []float64
}

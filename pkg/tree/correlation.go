package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"

	"corr2d/pkg/grid"
)

// MetricTwoD is the Cartesian offset metric: pairs are binned by their
// raw (dx, dy) separation vector. It is the only supported metric.
const MetricTwoD = "TwoD"

// Config describes a correlation object. With Metric = "TwoD" and
// BinSlop = 0 the pair binning is exact, making the output directly
// comparable, cell for cell, to the brute-force estimator under the
// same MaxSep/NBins configuration.
type Config struct {
	// MinSep is the minimum separation. The TwoD metric bins the full
	// offset square, so only zero is meaningful here.
	MinSep float64

	// MaxSep is the maximum offset magnitude per axis.
	MaxSep float64

	// NBins is the number of cells per axis; it must be odd.
	NBins int

	// Metric selects the separation metric; only MetricTwoD is valid.
	Metric string

	// BinSlop is the pair-binning tolerance; only zero (exact) is valid.
	BinSlop float64
}

func (cfg Config) validate() (*grid.OffsetGrid, error) {
	if cfg.Metric != MetricTwoD {
		return nil, fmt.Errorf("tree: unsupported metric %q (only %q is implemented)", cfg.Metric, MetricTwoD)
	}
	if cfg.BinSlop != 0 {
		return nil, fmt.Errorf("tree: bin slop %g is not exact; only 0 is supported", cfg.BinSlop)
	}
	if cfg.MinSep != 0 {
		return nil, fmt.Errorf("tree: min separation %g is not supported by the TwoD metric; use 0", cfg.MinSep)
	}
	g, err := grid.NewOffsetGrid(cfg.MaxSep, cfg.NBins)
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}
	return g, nil
}

// correlator holds the shared accumulation state of one correlation
// object: raw pair counts, summed pair weights and the summed weighted
// statistic, each indexed (xbin, ybin) until transposed on output.
type correlator struct {
	cfg    Config
	grid   *grid.OffsetGrid
	npairs *mat.Dense
	weight *mat.Dense
	stat   *mat.Dense
}

func newCorrelator(cfg Config) (correlator, error) {
	g, err := cfg.validate()
	if err != nil {
		return correlator{}, err
	}
	n := g.Bins()
	return correlator{
		cfg:    cfg,
		grid:   g,
		npairs: mat.NewDense(n, n, nil),
		weight: mat.NewDense(n, n, nil),
		stat:   mat.NewDense(n, n, nil),
	}, nil
}

// reset clears the accumulation grids; every Process call starts fresh.
func (c *correlator) reset() {
	c.npairs.Zero()
	c.weight.Zero()
	c.stat.Zero()
}

// run accumulates every pair of a and b whose offset falls inside the
// histogram. For each point of a the kd-tree of b yields the candidates
// within the circumscribing radius of the offset square; the exact cell
// test is then applied per pair. Pairs at exactly zero separation are
// skipped, which both excludes self-pairs when a and b are the same
// catalog and makes cross-processing a catalog against itself agree
// with auto mode.
func (c *correlator) run(a, b *Catalog, stat func(i, j int) float64) {
	// Squared circumscribing radius of the offset square, with head
	// room so corner-distance pairs are not lost to rounding. The cell
	// test below is exact.
	keep := 2 * c.cfg.MaxSep * c.cfg.MaxSep * (1 + 1e-9)
	for i := 0; i < a.Len(); i++ {
		q := point{x: a.x[i], y: a.y[i]}
		wi := a.weight(i)
		keeper := kdtree.NewDistKeeper(keep)
		b.tree.NearestSet(keeper, q)
		for _, item := range keeper.Heap {
			if item.Comparable == nil {
				continue
			}
			p := item.Comparable.(point)
			dx := p.x - q.x
			dy := p.y - q.y
			if dx == 0 && dy == 0 {
				continue
			}
			ix, iy, ok := c.grid.CellIndex(dx, dy)
			if !ok {
				continue
			}
			ww := wi * b.weight(p.idx)
			c.npairs.Set(ix, iy, c.npairs.At(ix, iy)+1)
			c.weight.Set(ix, iy, c.weight.At(ix, iy)+ww)
			if stat != nil {
				c.stat.Set(ix, iy, c.stat.At(ix, iy)+stat(i, p.idx)*ww)
			}
		}
	}
}

// xi returns the normalized statistic grid in the transposed caller
// convention (row = dy bin, col = dx bin). Empty cells are non-finite.
func (c *correlator) xi() *mat.Dense {
	n := c.grid.Bins()
	out := mat.NewDense(n, n, nil)
	for ix := 0; ix < n; ix++ {
		for iy := 0; iy < n; iy++ {
			out.Set(iy, ix, c.stat.At(ix, iy)/c.weight.At(ix, iy))
		}
	}
	return out
}

func transposed(m *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(m.T())
}

// KKCorrelation correlates two scalar fields.
type KKCorrelation struct {
	correlator
}

// NewKK returns a scalar-scalar correlation object for cfg.
func NewKK(cfg Config) (*KKCorrelation, error) {
	c, err := newCorrelator(cfg)
	if err != nil {
		return nil, err
	}
	return &KKCorrelation{c}, nil
}

// ProcessCross accumulates the cross-correlation of two catalogs,
// replacing any previous accumulation.
func (c *KKCorrelation) ProcessCross(a, b *Catalog) error {
	if a.k == nil || b.k == nil {
		return fmt.Errorf("tree: KK correlation requires scalar field values on both catalogs")
	}
	c.reset()
	c.run(a, b, func(i, j int) float64 { return a.k[i] * b.k[j] })
	return nil
}

// ProcessAuto accumulates the auto-correlation of one catalog,
// replacing any previous accumulation.
func (c *KKCorrelation) ProcessAuto(cat *Catalog) error {
	return c.ProcessCross(cat, cat)
}

// Xi returns the scalar-scalar correlation value grid.
func (c *KKCorrelation) Xi() *mat.Dense { return c.xi() }

// GGCorrelation correlates two spin-2 fields.
type GGCorrelation struct {
	correlator
}

// NewGG returns a spin-2 correlation object for cfg.
func NewGG(cfg Config) (*GGCorrelation, error) {
	c, err := newCorrelator(cfg)
	if err != nil {
		return nil, err
	}
	return &GGCorrelation{c}, nil
}

// ProcessCross accumulates the cross-correlation of two catalogs,
// replacing any previous accumulation.
func (c *GGCorrelation) ProcessCross(a, b *Catalog) error {
	if a.g == nil || b.g == nil {
		return fmt.Errorf("tree: GG correlation requires spin-2 field values on both catalogs")
	}
	c.reset()
	// xip pairs each shear with the conjugate of its partner; the
	// projection phases cancel, so no rotation to the separation frame
	// is needed for this statistic.
	c.run(a, b, func(i, j int) float64 {
		gj := b.g[j]
		return real(a.g[i] * complex(real(gj), -imag(gj)))
	})
	return nil
}

// ProcessAuto accumulates the auto-correlation of one catalog,
// replacing any previous accumulation.
func (c *GGCorrelation) ProcessAuto(cat *Catalog) error {
	return c.ProcessCross(cat, cat)
}

// XiP returns the spin-2 correlation value grid.
func (c *GGCorrelation) XiP() *mat.Dense { return c.xi() }

// NKCorrelation correlates point occurrences against a scalar field:
// the first catalog contributes counts, the second its field values.
type NKCorrelation struct {
	correlator
}

// NewNK returns a count-scalar correlation object for cfg.
func NewNK(cfg Config) (*NKCorrelation, error) {
	c, err := newCorrelator(cfg)
	if err != nil {
		return nil, err
	}
	return &NKCorrelation{c}, nil
}

// ProcessCross accumulates the count-scalar cross-correlation,
// replacing any previous accumulation.
func (c *NKCorrelation) ProcessCross(a, b *Catalog) error {
	if b.k == nil {
		return fmt.Errorf("tree: NK correlation requires scalar field values on the second catalog")
	}
	c.reset()
	c.run(a, b, func(i, j int) float64 { return b.k[j] })
	return nil
}

// ProcessAuto accumulates the count-scalar statistic of one catalog
// against itself, replacing any previous accumulation.
func (c *NKCorrelation) ProcessAuto(cat *Catalog) error {
	return c.ProcessCross(cat, cat)
}

// Xi returns the count-scalar correlation value grid.
func (c *NKCorrelation) Xi() *mat.Dense { return c.xi() }

// NNCorrelation counts pairs of point occurrences.
type NNCorrelation struct {
	correlator
}

// NewNN returns a count-count correlation object for cfg.
func NewNN(cfg Config) (*NNCorrelation, error) {
	c, err := newCorrelator(cfg)
	if err != nil {
		return nil, err
	}
	return &NNCorrelation{c}, nil
}

// ProcessCross accumulates pair totals for two catalogs, replacing any
// previous accumulation.
func (c *NNCorrelation) ProcessCross(a, b *Catalog) error {
	c.reset()
	c.run(a, b, nil)
	return nil
}

// ProcessAuto accumulates pair totals of one catalog against itself,
// replacing any previous accumulation.
func (c *NNCorrelation) ProcessAuto(cat *Catalog) error {
	return c.ProcessCross(cat, cat)
}

// NPairs returns the raw pair-count grid.
func (c *NNCorrelation) NPairs() *mat.Dense { return transposed(c.npairs) }

// Weight returns the weighted pair-count grid.
func (c *NNCorrelation) Weight() *mat.Dense { return transposed(c.weight) }

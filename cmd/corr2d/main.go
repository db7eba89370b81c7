package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"corr2d/internal/models"
	"corr2d/pkg/brute"
	"corr2d/pkg/catalog"
	"corr2d/pkg/config"
	"corr2d/pkg/field"
	"corr2d/pkg/grid"
	"corr2d/pkg/tree"
	"corr2d/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Path to YAML configuration file (defaults used when absent)")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	heatmapDir := flag.String("heatmaps", "", "Directory to save correlation grid heatmaps (overrides config)")
	seed := flag.Uint64("seed", 0, "Random seed override (0 keeps the configured seed)")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *seed != 0 {
		cfg.Catalog.Seed = *seed
	}
	if *heatmapDir != "" {
		cfg.Output.HeatmapDir = *heatmapDir
	}

	fmt.Println("================================")
	fmt.Println("BRUTE-FORCE 2D CORRELATION ORACLE")
	fmt.Println("Validating exact TwoD pair counting against exhaustive enumeration")
	fmt.Println("================================")
	fmt.Printf("Catalog: %d points in [%g, %g]^2, seed %d\n",
		cfg.Catalog.NumPoints, cfg.Catalog.MinCoord, cfg.Catalog.MaxCoord, cfg.Catalog.Seed)
	fmt.Printf("Histogram: max separation %g, %d bins per axis\n",
		cfg.Correlation.MaxSep, cfg.Correlation.NBins)

	startTime := time.Now()
	cat, err := generateCatalog(cfg)
	if err != nil {
		log.Fatalf("Catalog generation failed: %v", err)
	}
	fmt.Printf("Synthetic catalog generated in %.2f seconds\n\n", time.Since(startTime).Seconds())

	results, grids, err := runScenarios(cfg, cat)
	if err != nil {
		log.Fatalf("Validation run failed: %v", err)
	}

	failed := reportResults(os.Stdout, results, cfg.Output.Verbose, cfg.Output.Tolerance)
	fmt.Printf("Total runtime: %.2f seconds\n", time.Since(startTime).Seconds())

	if cfg.Output.HeatmapDir != "" {
		fmt.Printf("\nSaving grid heatmaps to: %s\n", cfg.Output.HeatmapDir)
		hm := visualization.NewHeatmap(16)
		if err := hm.SaveAll(grids, cfg.Output.HeatmapDir); err != nil {
			log.Printf("Warning: failed to save heatmaps: %v", err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// reportResults writes the agreement report to w and returns the number
// of failed scenarios. Per-scenario lines print only in verbose mode;
// failures always print.
func reportResults(w io.Writer, results []models.ComparisonResult, verbose bool, tolerance float64) int {
	fmt.Fprintln(w, "Oracle agreement report:")
	fmt.Fprintln(w, "========================")
	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		if verbose || !r.Passed {
			fmt.Fprintf(w, "%-26s max abs diff = %.3e  max rel diff = %.3e  [%s]\n",
				r.Name, r.MaxAbsDiff, r.MaxRelDiff, status)
		}
	}
	fmt.Fprintf(w, "\n%d scenarios, %d failed, tolerance %.1e\n", len(results), failed, tolerance)
	return failed
}

// generateCatalog draws the synthetic validation inputs: uniform
// positions, a correlated scalar field with measurement noise, a
// correlated spin-2 field, and inverse-variance weights.
func generateCatalog(cfg *config.Config) (*models.SyntheticCatalog, error) {
	gen := field.NewGenerator(cfg.Catalog.Seed)
	n := cfg.Catalog.NumPoints

	x := gen.Uniform(n, cfg.Catalog.MinCoord, cfg.Catalog.MaxCoord)
	y := gen.Uniform(n, cfg.Catalog.MinCoord, cfg.Catalog.MaxCoord)

	ell := field.CorrMatrix{
		{cfg.Catalog.CorrelationLength[0][0], cfg.Catalog.CorrelationLength[0][1]},
		{cfg.Catalog.CorrelationLength[1][0], cfg.Catalog.CorrelationLength[1][1]},
	}
	sigma := cfg.Catalog.Amplitude * cfg.Catalog.NoiseFraction

	kappa, err := gen.CorrelatedField(x, y, ell, cfg.Catalog.Amplitude, sigma)
	if err != nil {
		return nil, err
	}
	gamma, err := gen.SpinField(x, y, ell, cfg.Catalog.Amplitude, sigma)
	if err != nil {
		return nil, err
	}

	kappaErr := make([]float64, n)
	weights := make([]float64, n)
	for i := range kappaErr {
		kappaErr[i] = sigma
		weights[i] = 1 / (sigma * sigma)
	}

	return &models.SyntheticCatalog{
		X:        x,
		Y:        y,
		Kappa:    kappa,
		Gamma:    gamma,
		KappaErr: kappaErr,
		Weights:  weights,
	}, nil
}

// runScenarios executes every oracle-agreement scenario: scalar-scalar,
// spin-2, count-scalar and count-count statistics, weighted and
// unweighted, comparing the tree engine against the brute-force grids.
func runScenarios(cfg *config.Config, cat *models.SyntheticCatalog) ([]models.ComparisonResult, map[string]*mat.Dense, error) {
	opts := brute.Options{RMax: cfg.Correlation.MaxSep, Bins: cfg.Correlation.NBins, Auto: true}
	treeCfg := tree.Config{
		MaxSep:  cfg.Correlation.MaxSep,
		NBins:   cfg.Correlation.NBins,
		Metric:  tree.MetricTwoD,
		BinSlop: 0,
	}

	plain, err := tree.NewCatalog(cat.X, cat.Y, cat.Kappa, cat.Gamma, nil)
	if err != nil {
		return nil, nil, err
	}
	weighted, err := tree.NewCatalog(cat.X, cat.Y, cat.Kappa, cat.Gamma, cat.Weights)
	if err != nil {
		return nil, nil, err
	}

	var results []models.ComparisonResult
	grids := make(map[string]*mat.Dense)

	addResult := func(name string, oracle, engine *mat.Dense) error {
		absDiff, err := grid.MaxAbsDiff(oracle, engine)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		relDiff, err := grid.MaxRelDiff(engine, oracle)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, models.ComparisonResult{
			Name:       name,
			MaxAbsDiff: absDiff,
			MaxRelDiff: relDiff,
			Tolerance:  cfg.Output.Tolerance,
			Passed:     absDiff <= cfg.Output.Tolerance,
		})
		return nil
	}

	// Scalar-scalar, unweighted and weighted, cross and auto mode.
	for _, weights := range []struct {
		name string
		w    []float64
		cat  *tree.Catalog
	}{
		{"unweighted", nil, plain},
		{"weighted", cat.Weights, weighted},
	} {
		ps, err := catalog.NewScalar(cat.X, cat.Y, cat.Kappa, weights.w)
		if err != nil {
			return nil, nil, err
		}
		oracle, err := brute.Correlate(ps, ps, opts)
		if err != nil {
			return nil, nil, err
		}
		grids["kk_"+weights.name] = oracle.Xi

		kk, err := tree.NewKK(treeCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := kk.ProcessCross(weights.cat, weights.cat); err != nil {
			return nil, nil, err
		}
		if err := addResult("KK cross "+weights.name, oracle.Xi, kk.Xi()); err != nil {
			return nil, nil, err
		}
		if err := kk.ProcessAuto(weights.cat); err != nil {
			return nil, nil, err
		}
		if err := addResult("KK auto "+weights.name, oracle.Xi, kk.Xi()); err != nil {
			return nil, nil, err
		}
	}

	// Spin-2 auto-correlation, unweighted and weighted.
	for _, weights := range []struct {
		name string
		w    []float64
		cat  *tree.Catalog
	}{
		{"unweighted", nil, plain},
		{"weighted", cat.Weights, weighted},
	} {
		ps, err := catalog.NewSpin2(cat.X, cat.Y, cat.Gamma, weights.w)
		if err != nil {
			return nil, nil, err
		}
		oracle, err := brute.Correlate(ps, ps, opts)
		if err != nil {
			return nil, nil, err
		}
		grids["gg_"+weights.name] = oracle.Xi

		gg, err := tree.NewGG(treeCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := gg.ProcessAuto(weights.cat); err != nil {
			return nil, nil, err
		}
		if err := addResult("GG auto "+weights.name, oracle.Xi, gg.XiP()); err != nil {
			return nil, nil, err
		}
	}

	// Count-scalar, unweighted and weighted.
	for _, weights := range []struct {
		name string
		w    []float64
		cat  *tree.Catalog
	}{
		{"unweighted", nil, plain},
		{"weighted", cat.Weights, weighted},
	} {
		ps, err := catalog.NewCountScalar(cat.X, cat.Y, cat.Kappa, weights.w)
		if err != nil {
			return nil, nil, err
		}
		oracle, err := brute.Correlate(ps, ps, opts)
		if err != nil {
			return nil, nil, err
		}
		grids["nk_"+weights.name] = oracle.Xi

		nk, err := tree.NewNK(treeCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := nk.ProcessCross(weights.cat, weights.cat); err != nil {
			return nil, nil, err
		}
		if err := addResult("NK cross "+weights.name, oracle.Xi, nk.Xi()); err != nil {
			return nil, nil, err
		}
	}

	// Count-count pair totals: raw counts unweighted, weighted totals
	// with weights.
	{
		ps, err := catalog.NewCount(cat.X, cat.Y, nil)
		if err != nil {
			return nil, nil, err
		}
		oracle, err := brute.Correlate(ps, ps, opts)
		if err != nil {
			return nil, nil, err
		}
		grids["nn_npairs"] = oracle.Counts

		nn, err := tree.NewNN(treeCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := nn.ProcessAuto(plain); err != nil {
			return nil, nil, err
		}
		if err := addResult("NN npairs", oracle.Counts, nn.NPairs()); err != nil {
			return nil, nil, err
		}

		psw, err := catalog.NewCount(cat.X, cat.Y, cat.Weights)
		if err != nil {
			return nil, nil, err
		}
		oracleW, err := brute.Correlate(psw, psw, opts)
		if err != nil {
			return nil, nil, err
		}
		grids["nn_weight"] = oracleW.Counts

		if err := nn.ProcessAuto(weighted); err != nil {
			return nil, nil, err
		}
		if err := addResult("NN weighted", oracleW.Counts, nn.Weight()); err != nil {
			return nil, nil, err
		}
	}

	return results, grids, nil
}

// Package bench times the cell-list build against the all-pairs baseline
// over a sweep of particle counts.
package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/monitoring"
	"github.com/banshee-data/cellindex/internal/sampler"
)

// ErrMismatch is returned when the cell list and the baseline disagree.
var ErrMismatch = errors.New("cell list and brute force disagree")

// SweepConfig describes one benchmark sweep.
type SweepConfig struct {
	DomainSize float64
	Cutoff     float64
	Radius     float64
	Boundary   cellindex.Boundary
	Counts     []int
	Repeats    int
	Seed       uint64
	Workers    int
	// BruteLimit skips the baseline above this N. Zero means always run it.
	BruteLimit int
}

// Result summarises the timings for one particle count.
type Result struct {
	N             int     `json:"n"`
	Repeats       int     `json:"repeats"`
	Cells         int     `json:"cells"`
	MeanPairs     float64 `json:"mean_pairs"`
	MeanNeighbors float64 `json:"mean_neighbors"`
	CellMeanMs    float64 `json:"cell_mean_ms"`
	CellStdMs     float64 `json:"cell_std_ms"`
	CellMinMs     float64 `json:"cell_min_ms"`
	BruteMeanMs   float64 `json:"brute_mean_ms"`
	BruteStdMs    float64 `json:"brute_std_ms"`
	BruteMinMs    float64 `json:"brute_min_ms"`
	BruteRun      bool    `json:"brute_run"`
	Speedup       float64 `json:"speedup"`
}

func (c SweepConfig) indexConfig() cellindex.Config {
	return cellindex.Config{
		DomainSize: c.DomainSize,
		Cutoff:     c.Cutoff,
		Boundary:   c.Boundary,
		Workers:    c.Workers,
	}
}

// Sweep runs cfg.Repeats random configurations for each N in cfg.Counts.
// Every configuration gets a fresh draw from one generator seeded with
// cfg.Seed, so a sweep is reproducible.
func Sweep(ctx context.Context, cfg SweepConfig) ([]Result, error) {
	if len(cfg.Counts) == 0 {
		return nil, fmt.Errorf("%w: no particle counts to sweep", cellindex.ErrInvalidConfiguration)
	}
	repeats := max(cfg.Repeats, 1)
	gen := sampler.NewGenerator(cfg.Seed)
	icfg := cfg.indexConfig()

	results := make([]Result, 0, len(cfg.Counts))
	for _, n := range cfg.Counts {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative particle count %d", cellindex.ErrInvalidConfiguration, n)
		}
		runBrute := cfg.BruteLimit == 0 || n <= cfg.BruteLimit
		cellMs := make([]float64, 0, repeats)
		bruteMs := make([]float64, 0, repeats)
		pairs := make([]float64, 0, repeats)
		res := Result{N: n, Repeats: repeats, BruteRun: runBrute}

		for r := 0; r < repeats; r++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			particles := gen.Uniform(n, cfg.DomainSize, cfg.Radius)

			start := time.Now()
			idx, err := cellindex.BuildContext(ctx, particles, icfg)
			took := time.Since(start)
			if err != nil {
				return nil, fmt.Errorf("build N=%d: %w", n, err)
			}
			cellMs = append(cellMs, millis(took))
			pairs = append(pairs, float64(idx.PairCount()))
			res.Cells = idx.GridSize()
			res.MeanNeighbors += idx.MeanNeighbors() / float64(repeats)

			if !runBrute {
				continue
			}
			start = time.Now()
			ref, err := cellindex.BruteForce(particles, icfg)
			took = time.Since(start)
			if err != nil {
				return nil, fmt.Errorf("brute force N=%d: %w", n, err)
			}
			bruteMs = append(bruteMs, millis(took))
			if !slices.Equal(idx.Pairs(), ref.Pairs()) {
				return nil, fmt.Errorf("%w: N=%d repeat %d: %d vs %d pairs",
					ErrMismatch, n, r, idx.PairCount(), ref.PairCount())
			}
		}

		res.MeanPairs = stat.Mean(pairs, nil)
		res.CellMeanMs, res.CellStdMs = meanStd(cellMs)
		res.CellMinMs = floats.Min(cellMs)
		if runBrute {
			res.BruteMeanMs, res.BruteStdMs = meanStd(bruteMs)
			res.BruteMinMs = floats.Min(bruteMs)
			if res.CellMeanMs > 0 {
				res.Speedup = res.BruteMeanMs / res.CellMeanMs
			}
		}
		monitoring.Debugf("bench N=%d M=%d cell=%.3fms brute=%.3fms", n, res.Cells, res.CellMeanMs, res.BruteMeanMs)
		results = append(results, res)
	}
	return results, nil
}

// meanStd is stat.MeanStdDev with a zero deviation for a single sample.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) < 2 {
		return stat.Mean(xs, nil), 0
	}
	return stat.MeanStdDev(xs, nil)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var csvHeader = []string{
	"n", "repeats", "cells", "mean_pairs", "mean_neighbors",
	"cell_mean_ms", "cell_std_ms", "cell_min_ms",
	"brute_mean_ms", "brute_std_ms", "brute_min_ms", "speedup",
}

// WriteCSV writes one row per result. Baseline columns are empty when the
// baseline was skipped.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.N), strconv.Itoa(r.Repeats), strconv.Itoa(r.Cells),
			f(r.MeanPairs), f(r.MeanNeighbors),
			f(r.CellMeanMs), f(r.CellStdMs), f(r.CellMinMs),
			"", "", "", "",
		}
		if r.BruteRun {
			row[8], row[9], row[10], row[11] = f(r.BruteMeanMs), f(r.BruteStdMs), f(r.BruteMinMs), f(r.Speedup)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable prints results as aligned text for the terminal.
func WriteTable(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintf(w, "%8s %6s %10s %10s %12s %12s %9s\n",
		"N", "M", "pairs", "nbrs/p", "cell ms", "brute ms", "speedup"); err != nil {
		return err
	}
	for _, r := range results {
		brute, speedup := "-", "-"
		if r.BruteRun {
			brute = fmt.Sprintf("%.3f", r.BruteMeanMs)
			speedup = fmt.Sprintf("%.1fx", r.Speedup)
		}
		if _, err := fmt.Fprintf(w, "%8d %6d %10.1f %10.2f %12.3f %12s %9s\n",
			r.N, r.Cells, r.MeanPairs, r.MeanNeighbors, r.CellMeanMs, brute, speedup); err != nil {
			return err
		}
	}
	return nil
}

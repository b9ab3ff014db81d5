package cellindex

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// traverseParallel splits the cx rows into contiguous bands, one goroutine
// per band and at most workers running at once. Each band collects pairs
// into its own slice, so the hot loop shares no mutable state; bands are
// concatenated after Wait and de-duplicated by newIndex.
func traverseParallel(ctx context.Context, g *Grid, byID []Particle, mp CoordinateMapper, rc float64, workers int) ([]Pair, error) {
	bands := min(workers, g.m)
	results := make([][]Pair, bands)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for b := 0; b < bands; b++ {
		from := b * g.m / bands
		to := (b + 1) * g.m / bands
		eg.Go(func() error {
			pairs, err := traverseRows(ctx, g, byID, mp, rc, from, to)
			if err != nil {
				return err
			}
			results[b] = pairs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	pairs := make([]Pair, 0, total)
	for _, r := range results {
		pairs = append(pairs, r...)
	}
	return pairs, nil
}

package cellindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	for _, b := range []Boundary{Periodic, Wall} {
		for _, workers := range []int{2, 3, 8, 64} {
			ps := randomParticles(uint64(workers), 400, 20, 0.1)
			cfg := Config{DomainSize: 20, Cutoff: 1, Boundary: b}

			serial, err := Build(ps, cfg)
			require.NoError(t, err)

			cfg.Workers = workers
			parallel, err := Build(ps, cfg)
			require.NoError(t, err)

			assert.Equal(t, serial.Pairs(), parallel.Pairs(), "boundary=%v workers=%d", b, workers)
			assert.Equal(t, serial.Neighbors(), parallel.Neighbors())
		}
	}
}

// Small periodic grids revisit cell pairs from both sides; bands must not
// leak duplicates into the result.
func TestBuild_ParallelSmallPeriodicGrid(t *testing.T) {
	t.Parallel()

	ps := randomParticles(5, 60, 10, 0)
	cfg := Config{DomainSize: 10, Cutoff: 4, Cells: 2, Boundary: Periodic, Workers: 4}
	got, err := Build(ps, cfg)
	require.NoError(t, err)
	want, err := BruteForce(ps, cfg)
	require.NoError(t, err)
	assert.Equal(t, want.Pairs(), got.Pairs())
}

func TestBuild_ParallelCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildContext(ctx, randomParticles(9, 100, 10, 0), Config{DomainSize: 10, Cutoff: 1, Workers: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/db"
	"github.com/banshee-data/cellindex/internal/export"
	"github.com/banshee-data/cellindex/internal/monitoring"
	"github.com/banshee-data/cellindex/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func parse(t *testing.T, args ...string) (options, *parsedConfig) {
	t.Helper()
	opts, cfg, _, err := parseFlags(flag.NewFlagSet("cellindex", flag.ContinueOnError), args)
	require.NoError(t, err)
	return opts, &parsedConfig{cfg.IndexConfig(), cfg.GetParticleCount(), cfg.GetSeed(), cfg.GetOutputDir()}
}

type parsedConfig struct {
	index     cellindex.Config
	n         int
	seed      uint64
	outputDir string
}

func TestParseFlags_Defaults(t *testing.T) {
	_, cfg := parse(t)
	assert.Equal(t, cellindex.Config{DomainSize: 20, Cutoff: 5, Workers: 1}, cfg.index)
	assert.Equal(t, 100, cfg.n)
}

func TestParseFlags_ExplicitFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"domain_size": 50, "cutoff": 2, "periodic": false}`), 0644))

	_, cfg := parse(t, "-config", path, "-rc", "3", "-N", "10", "-seed", "9")
	assert.Equal(t, 50.0, cfg.index.DomainSize, "file value kept")
	assert.Equal(t, 3.0, cfg.index.Cutoff, "flag wins over file")
	assert.Equal(t, cellindex.Wall, cfg.index.Boundary)
	assert.Equal(t, 10, cfg.n)
	assert.Equal(t, uint64(9), cfg.seed)
}

func TestParseFlags_Errors(t *testing.T) {
	cases := [][]string{
		{"-rc", "-1"},
		{"-workers", "0"},
		{"-serve", ":0"},
		{"-config", "missing.json"},
		{"-unknown"},
	}
	for _, args := range cases {
		fs := flag.NewFlagSet("cellindex", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		_, _, _, err := parseFlags(fs, args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestParseFlags_Version(t *testing.T) {
	_, _, showVersion, err := parseFlags(flag.NewFlagSet("cellindex", flag.ContinueOnError), []string{"-version"})
	require.NoError(t, err)
	assert.True(t, showVersion)
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	opts, cfg, _, err := parseFlags(flag.NewFlagSet("cellindex", flag.ContinueOnError),
		[]string{"-N", "200", "-L", "10", "-rc", "1", "-radius", "0.1", "-seed", "3", "-out", dir})
	require.NoError(t, err)
	opts.PNGPath = filepath.Join(dir, "plot.png")
	opts.HTMLPath = filepath.Join(dir, "chart.html")
	opts.DBPath = filepath.Join(dir, "runs.db")

	res, err := run(context.Background(), cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Index.Len())
	assert.Equal(t, uint64(3), res.Summary.Seed)
	assert.NotEmpty(t, res.Summary.RunID)

	for _, name := range []string{export.NeighborsFile, export.ParticlesFile, export.SummaryFile, "plot.png", "chart.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	ref, err := cellindex.BruteForce(res.Index.Particles(), res.Index.Config())
	require.NoError(t, err)
	assert.Equal(t, ref.Pairs(), res.Index.Pairs())

	database, err := db.NewDB(opts.DBPath)
	require.NoError(t, err)
	defer database.Close()
	stored, err := db.NewRunStore(database).Get(res.Summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Index.PairCount(), stored.PairCount)
}

func TestRun_LoadsParticleListing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tsv")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, export.WriteParticles(f, testutil.Corners(10, 0.01), 10, false))
	require.NoError(t, f.Close())

	opts, cfg, _, err := parseFlags(flag.NewFlagSet("cellindex", flag.ContinueOnError),
		[]string{"-in", in, "-rc", "1", "-radius", "0", "-out", dir})
	require.NoError(t, err)

	res, err := run(context.Background(), cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Index.DomainSize())
	assert.Equal(t, 6, res.Index.PairCount())
	assert.Zero(t, res.Summary.Seed)

	nf, err := os.Open(filepath.Join(dir, export.NeighborsFile))
	require.NoError(t, err)
	defer nf.Close()
	neighbors, err := export.ReadNeighbors(nf)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, neighbors[0])
}

func TestPickHighlight(t *testing.T) {
	assert.Equal(t, 4, pickHighlight(4, 10, 1))
	assert.Equal(t, -1, pickHighlight(-1, 0, 1))
	h := pickHighlight(-1, 10, 1)
	assert.GreaterOrEqual(t, h, 0)
	assert.Less(t, h, 10)
	assert.Equal(t, h, pickHighlight(-1, 10, 1))
}

func TestRunMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	var out strings.Builder
	require.NoError(t, runMigrate([]string{"-db", path, "up"}, &out, nil))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, runMigrate([]string{"-db", path, "down"}, &out, nil))
	assert.Contains(t, out.String(), "Current version: 0")

	err := runMigrate([]string{"-db", path}, io.Discard, nil)
	assert.ErrorIs(t, err, db.ErrMigrateUsage)
}

package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

func TestParseCounts(t *testing.T) {
	got, err := parseCounts("10, 100,,1000")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 100, 1000}, got)

	for _, bad := range []string{"", ",", "ten", "-5"} {
		_, err := parseCounts(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags(flag.NewFlagSet("cellbench", flag.ContinueOnError),
		[]string{"-n", "50,60", "-periodic=false", "-repeats", "2", "-workers", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 60}, cfg.Sweep.Counts)
	assert.Equal(t, cellindex.Wall, cfg.Sweep.Boundary)
	assert.Equal(t, 2, cfg.Sweep.Repeats)
	assert.Equal(t, 3, cfg.Sweep.Workers)
	assert.Equal(t, 100.0, cfg.Sweep.DomainSize)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseFlags(flag.NewFlagSet("cellbench", flag.ContinueOnError), []string{
		"-L", "20", "-rc", "2", "-n", "20,80", "-repeats", "2",
		"-csv", filepath.Join(dir, "bench.csv"),
		"-html", filepath.Join(dir, "bench.html"),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)

	csvData, err := os.ReadFile(filepath.Join(dir, "bench.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(csvData), "\n"))

	html, err := os.ReadFile(filepath.Join(dir, "bench.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "brute force")
}

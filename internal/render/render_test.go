package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cellindex/internal/bench"
	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/testutil"
)

func latticeIndex(t *testing.T) *cellindex.Index {
	t.Helper()
	idx, err := cellindex.Build(testutil.Lattice(4, 8, 0.2), cellindex.Config{
		DomainSize: 8,
		Cutoff:     1.6,
		Boundary:   cellindex.Wall,
	})
	require.NoError(t, err)
	return idx
}

func TestClassify(t *testing.T) {
	idx := latticeIndex(t)

	// Particle 5 sits at lattice (1,1): four orthogonal neighbors.
	g := classify(idx, 5)
	require.Len(t, g.highlight, 1)
	assert.Equal(t, 5, g.highlight[0].ID)
	var ids []int
	for _, p := range g.neighbors {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 4, 6, 9}, ids)
	assert.Len(t, g.others, 11)

	g = classify(idx, -1)
	assert.Empty(t, g.highlight)
	assert.Empty(t, g.neighbors)
	assert.Len(t, g.others, 16)

	g = classify(idx, 99)
	assert.Len(t, g.others, 16)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#dc2828", hexColor(colorHighlight))
	assert.Equal(t, "#28aa3c", hexColor(colorNeighbor))
	assert.Equal(t, "#3c5ac8", hexColor(colorOther))
}

func TestWritePNG(t *testing.T) {
	idx := latticeIndex(t)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, idx, 5, PNGOptions{GridLines: true}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestRenderPNG_File(t *testing.T) {
	idx := latticeIndex(t)
	path := filepath.Join(t.TempDir(), "plots", "particles.png")

	require.NoError(t, RenderPNG(path, idx, -1, PNGOptions{Title: "lattice"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNewPlot_BruteForceIndexHasNoGrid(t *testing.T) {
	idx, err := cellindex.BruteForce(testutil.Triangle(), cellindex.Config{DomainSize: 10, Cutoff: 2})
	require.NoError(t, err)

	p, err := NewPlot(idx, 0, PNGOptions{GridLines: true})
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "N=3")
	assert.Equal(t, 10.0, p.X.Max)
}

func TestWriteScatterHTML(t *testing.T) {
	idx := latticeIndex(t)

	var buf bytes.Buffer
	require.NoError(t, WriteScatterHTML(&buf, idx, 5))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "neighbors")
	assert.Contains(t, html, hexColor(colorNeighbor))
}

func TestScatterChart_NoHighlight(t *testing.T) {
	idx := latticeIndex(t)

	var buf bytes.Buffer
	require.NoError(t, ScatterChart(idx, -1).Render(&buf))
	assert.NotContains(t, buf.String(), hexColor(colorHighlight))
}

func TestWriteTimingHTML(t *testing.T) {
	results := []bench.Result{
		{N: 100, CellMeanMs: 0.1, BruteRun: true, BruteMeanMs: 0.5},
		{N: 10000, CellMeanMs: 10},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTimingHTML(&buf, results))
	html := buf.String()
	assert.True(t, strings.Contains(html, "cell list"))
	assert.True(t, strings.Contains(html, "brute force"))
	assert.Contains(t, html, "10000")
}

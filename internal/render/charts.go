package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/cellindex/internal/bench"
	"github.com/banshee-data/cellindex/internal/cellindex"
)

// AssetsHost overrides where chart pages load echarts from. Empty uses the
// go-echarts default CDN.
var AssetsHost string

// ScatterChart builds an interactive scatter with the same colouring as
// NewPlot. The tooltip value is [x, y, id].
func ScatterChart(idx *cellindex.Index, highlight int) *charts.Scatter {
	l := idx.DomainSize()
	groups := classify(idx, highlight)

	subtitle := fmt.Sprintf("N=%d rc=%g M=%d %s pairs=%d", idx.Len(), idx.Cutoff(), idx.GridSize(), idx.Boundary(), idx.PairCount())
	if len(groups.highlight) > 0 {
		subtitle += fmt.Sprintf(" highlight=%d neighbors=%d", highlight, len(groups.neighbors))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Cell list neighbors", Width: "900px", Height: "900px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Particles", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: l, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: l, Name: "y", NameLocation: "middle", NameGap: 30}),
	)

	add := func(name string, particles []cellindex.Particle, color string, size int) {
		data := make([]opts.ScatterData, 0, len(particles))
		for _, p := range particles {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.ID}})
		}
		scatter.AddSeries(name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	add("other", groups.others, hexColor(colorOther), 5)
	if len(groups.highlight) > 0 {
		add("neighbor", groups.neighbors, hexColor(colorNeighbor), 7)
		add("highlight", groups.highlight, hexColor(colorHighlight), 10)
	}
	return scatter
}

// WriteScatterHTML renders ScatterChart as a standalone HTML page.
func WriteScatterHTML(w io.Writer, idx *cellindex.Index, highlight int) error {
	return ScatterChart(idx, highlight).Render(w)
}

// TimingChart plots mean build time against N for the cell list and, where
// it was run, the brute-force baseline.
func TimingChart(results []bench.Result) *charts.Line {
	x := make([]string, 0, len(results))
	cell := make([]opts.LineData, 0, len(results))
	brute := make([]opts.LineData, 0, len(results))
	for _, r := range results {
		x = append(x, strconv.Itoa(r.N))
		cell = append(cell, opts.LineData{Value: r.CellMeanMs})
		if r.BruteRun {
			brute = append(brute, opts.LineData{Value: r.BruteMeanMs})
		} else {
			brute = append(brute, opts.LineData{Value: "-"})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Cell list timings", Width: "100%", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Build time", Subtitle: "mean ms per configuration"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms", Type: "log"}),
	)
	line.SetXAxis(x).
		AddSeries("cell list", cell, charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)})).
		AddSeries("brute force", brute)
	return line
}

// WriteTimingHTML renders a page with the timing chart.
func WriteTimingHTML(w io.Writer, results []bench.Result) error {
	page := components.NewPage()
	if AssetsHost != "" {
		page.SetAssetsHost(AssetsHost)
	}
	page.AddCharts(TimingChart(results))
	return page.Render(w)
}

package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// PNGOptions controls static rendering.
type PNGOptions struct {
	// Size is the side of the square canvas. Zero means 8 inches.
	Size vg.Length
	// GridLines draws the cell boundaries when the index has a grid.
	GridLines bool
	Title     string
}

func (o PNGOptions) size() vg.Length {
	if o.Size <= 0 {
		return 8 * vg.Inch
	}
	return o.Size
}

// minGlyph keeps point particles visible.
const minGlyph = 1.5

// NewPlot builds the particle scatter: the highlighted particle red, its
// neighbors green, the rest blue. Glyphs are scaled to the particle radius.
func NewPlot(idx *cellindex.Index, highlight int, o PNGOptions) (*plot.Plot, error) {
	l := idx.DomainSize()
	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("N=%d L=%g rc=%g M=%d %s", idx.Len(), l, idx.Cutoff(), idx.GridSize(), idx.Boundary())
	}
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = 0, l
	p.Y.Min, p.Y.Max = 0, l

	if g := idx.Grid(); o.GridLines && g != nil {
		ticks := make([]plot.Tick, 0, g.Size()+1)
		for i := 0; i <= g.Size(); i++ {
			ticks = append(ticks, plot.Tick{Value: float64(i) * g.CellSize()})
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
		p.Y.Tick.Marker = plot.ConstantTicks(ticks)
		grid := plotter.NewGrid()
		grid.Vertical.Color = colorGrid
		grid.Horizontal.Color = colorGrid
		p.Add(grid)
	}

	// Data area is roughly 85% of the canvas.
	scale := 0.85 * float64(o.size()) / l
	groups := classify(idx, highlight)
	for _, s := range []struct {
		name      string
		particles []cellindex.Particle
		color     color.Color
	}{
		{"other", groups.others, colorOther},
		{"neighbor", groups.neighbors, colorNeighbor},
		{"highlight", groups.highlight, colorHighlight},
	} {
		if len(s.particles) == 0 {
			continue
		}
		sc, err := scatter(s.particles, s.color, scale)
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", s.name, err)
		}
		p.Add(sc)
		if len(groups.highlight) > 0 {
			p.Legend.Add(s.name, sc)
		}
	}
	p.Legend.Top = true
	return p, nil
}

func scatter(particles []cellindex.Particle, c color.Color, scale float64) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, len(particles))
	for i, pt := range particles {
		pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  c,
			Radius: vg.Length(max(particles[i].Radius*scale, minGlyph)),
			Shape:  draw.CircleGlyph{},
		}
	}
	return sc, nil
}

// WritePNG renders idx as a PNG to w.
func WritePNG(w io.Writer, idx *cellindex.Index, highlight int, o PNGOptions) error {
	p, err := NewPlot(idx, highlight, o)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(o.size(), o.size(), "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// RenderPNG renders idx to a PNG file at path, creating parent directories.
func RenderPNG(path string, idx *cellindex.Index, highlight int, o PNGOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	p, err := NewPlot(idx, highlight, o)
	if err != nil {
		return err
	}
	if err := p.Save(o.size(), o.size(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Package render draws particle configurations and benchmark timings, as
// static PNGs through gonum/plot and as HTML charts through go-echarts.
package render

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

var (
	colorHighlight = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	colorNeighbor  = color.RGBA{R: 40, G: 170, B: 60, A: 255}
	colorOther     = color.RGBA{R: 60, G: 90, B: 200, A: 200}
	colorGrid      = color.Gray{Y: 200}
)

// groups splits the particles of idx into the highlighted particle, its
// neighbors and everything else. An out-of-range highlight puts every
// particle in others.
type groups struct {
	highlight []cellindex.Particle
	neighbors []cellindex.Particle
	others    []cellindex.Particle
}

func classify(idx *cellindex.Index, highlight int) groups {
	var g groups
	particles := idx.Particles()
	if highlight < 0 || highlight >= len(particles) {
		g.others = particles
		return g
	}
	for _, p := range particles {
		switch {
		case p.ID == highlight:
			g.highlight = append(g.highlight, p)
		case idx.AreNeighbors(highlight, p.ID):
			g.neighbors = append(g.neighbors, p)
		default:
			g.others = append(g.others, p)
		}
	}
	return g
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

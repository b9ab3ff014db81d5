package cellindex

import (
	"math"
	"math/big"
)

// stencil is the forward half-stencil: the cell itself, then top, top-right,
// right and bottom-right. Every lattice-adjacent cell pair is reached from
// exactly one of its two cells.
var stencil = [5][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {1, -1}}

// CoordinateMapper carries everything that differs between boundary variants.
type CoordinateMapper interface {
	// Map returns the cell reached from (cx, cy) by offset (dx, dy).
	// ok is false when the offset leaves the grid and must be skipped.
	Map(cx, cy, dx, dy int) (nx, ny int, ok bool)
	// Distance returns the center-to-center distance between two particles.
	Distance(a, b Particle) float64
	// SquaredDistanceRat returns the exact squared center-to-center distance
	// of the given coordinates, used to settle cutoff ties.
	SquaredDistanceRat(a, b Particle) *big.Rat
}

// NewMapper returns the mapper for a boundary on an M×M grid of side L.
func NewMapper(b Boundary, m int, l float64) CoordinateMapper {
	if b == Wall {
		return wallMapper{m: m}
	}
	return periodicMapper{m: m, l: l}
}

// periodicMapper wraps cell indices modulo M and uses minimum-image distances.
type periodicMapper struct {
	m int
	l float64
}

func (pm periodicMapper) Map(cx, cy, dx, dy int) (int, int, bool) {
	return (cx + dx + pm.m) % pm.m, (cy + dy + pm.m) % pm.m, true
}

func (pm periodicMapper) Distance(a, b Particle) float64 {
	dx := math.Abs(a.X - b.X)
	dy := math.Abs(a.Y - b.Y)
	dx = math.Min(dx, pm.l-dx)
	dy = math.Min(dy, pm.l-dy)
	return math.Sqrt(dx*dx + dy*dy)
}

func (pm periodicMapper) SquaredDistanceRat(a, b Particle) *big.Rat {
	return exactSquare(pm.image(a.X, b.X), pm.image(a.Y, b.Y))
}

// image returns the exact minimum-image separation min(|u-v|, L-|u-v|).
func (pm periodicMapper) image(u, v float64) *big.Rat {
	d := exact(u)
	d.Sub(d, exact(v))
	d.Abs(d)
	alt := exact(pm.l)
	alt.Sub(alt, d)
	if alt.Cmp(d) < 0 {
		return alt
	}
	return d
}

// wallMapper clips offsets at the grid edge and uses plain Euclidean distance.
type wallMapper struct {
	m int
}

func (wm wallMapper) Map(cx, cy, dx, dy int) (int, int, bool) {
	nx, ny := cx+dx, cy+dy
	if nx < 0 || nx >= wm.m || ny < 0 || ny >= wm.m {
		return 0, 0, false
	}
	return nx, ny, true
}

func (wm wallMapper) Distance(a, b Particle) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (wm wallMapper) SquaredDistanceRat(a, b Particle) *big.Rat {
	dx := exact(a.X)
	dx.Sub(dx, exact(b.X))
	dy := exact(a.Y)
	dy.Sub(dy, exact(b.Y))
	return exactSquare(dx, dy)
}

// inRange reports whether two particles are neighbors under the cutoff rule
// dist <= rc + r1 + r2. Near-ties are decided exactly.
func inRange(mp CoordinateMapper, a, b Particle, rc float64) bool {
	if a.ID == b.ID {
		return false
	}
	reach := rc + a.Radius + b.Radius
	d := mp.Distance(a, b)
	slack := tieSlack(max(a.X, a.Y, b.X, b.Y) + reach)
	switch {
	case d < reach-slack:
		return true
	case d > reach+slack:
		return false
	}
	return exactWithin(mp.SquaredDistanceRat(a, b), rc, a.Radius, b.Radius)
}

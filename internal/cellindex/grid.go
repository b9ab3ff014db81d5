package cellindex

import "math"

// Grid is an M×M lattice of cells over [0,L)×[0,L).
//
// Cell membership uses a counting-sort layout: the ids of cell c are
// ids[start[c]:start[c+1]]. Cells are indexed cx*M + cy.
type Grid struct {
	m        int
	l        float64
	cellSize float64
	start    []int
	ids      []int
}

// newGrid assigns every particle to exactly one cell. Particles must already
// be validated: ids 0..N-1 and coordinates inside [0,L).
func newGrid(particles []Particle, l float64, m int) *Grid {
	g := &Grid{
		m:        m,
		l:        l,
		cellSize: l / float64(m),
		start:    make([]int, m*m+1),
		ids:      make([]int, len(particles)),
	}

	cellOf := make([]int, len(particles)) // particle id → cell index
	for _, p := range particles {
		cx, cy := g.CellOf(p.X, p.Y)
		c := g.index(cx, cy)
		cellOf[p.ID] = c
		g.start[c+1]++
	}
	for c := 1; c < len(g.start); c++ {
		g.start[c] += g.start[c-1]
	}

	// Fill in id order so members of each cell stay ascending.
	next := make([]int, m*m)
	copy(next, g.start[:m*m])
	for id, c := range cellOf {
		g.ids[next[c]] = id
		next[c]++
	}
	return g
}

// CellOf returns the cell coordinates containing (x, y), that is
// floor(x·M/L) and floor(y·M/L) clamped to the grid.
func (g *Grid) CellOf(x, y float64) (cx, cy int) {
	return g.axisCell(x), g.axisCell(y)
}

// axisCell bins one coordinate. Values within rounding of a cell edge are
// binned exactly, so a particle never lands one cell away from where the
// cutoff rule measures it.
func (g *Grid) axisCell(v float64) int {
	f := v / g.cellSize
	if !finite(f) {
		return 0
	}
	c := int(f)
	if frac := f - math.Floor(f); frac < tieSlack(f+1) || 1-frac < tieSlack(f+1) {
		c = exactCell(v, g.l, g.m)
	}
	return max(0, min(c, g.m-1))
}

func (g *Grid) index(cx, cy int) int { return cx*g.m + cy }

// Members returns the ids resident in cell (cx, cy), ascending.
// The returned slice must not be modified.
func (g *Grid) Members(cx, cy int) []int {
	c := g.index(cx, cy)
	return g.ids[g.start[c]:g.start[c+1]:g.start[c+1]]
}

// Size returns M, the number of cells per axis.
func (g *Grid) Size() int { return g.m }

// CellSize returns L/M.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Occupancy returns the number of particles in each cell, indexed cx*M + cy.
func (g *Grid) Occupancy() []int {
	occ := make([]int, g.m*g.m)
	for c := range occ {
		occ[c] = g.start[c+1] - g.start[c]
	}
	return occ
}

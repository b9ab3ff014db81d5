package cellindex

import (
	"fmt"
	"strings"
)

// Particle is a circular particle in the domain [0,L)×[0,L).
// Radius is zero for point particles.
type Particle struct {
	ID     int
	X, Y   float64
	Radius float64
}

// Pair is an unordered neighbor pair stored with A < B.
type Pair struct {
	A, B int
}

// Boundary selects how the domain edges are treated.
type Boundary int

const (
	// Periodic wraps the domain into a torus and uses the minimum-image distance.
	Periodic Boundary = iota
	// Wall treats the domain edges as hard walls; no wrap-around.
	Wall
)

func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Wall:
		return "wall"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// ParseBoundary converts "periodic" or "wall" (case-insensitive) to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "periodic", "torus":
		return Periodic, nil
	case "wall", "walls", "open":
		return Wall, nil
	}
	return 0, fmt.Errorf("%w: unknown boundary %q", ErrInvalidConfiguration, s)
}

// Config holds the inputs of one neighbor computation.
type Config struct {
	DomainSize float64  // L, side of the square domain
	Cutoff     float64  // rc, interaction cutoff
	Cells      int      // M; 0 derives the largest valid M
	Boundary   Boundary // Periodic or Wall
	Workers    int      // >1 shards the cell traversal across goroutines
}

// MaxRadius returns the largest particle radius, 0 for an empty slice.
func MaxRadius(particles []Particle) float64 {
	rMax := 0.0
	for _, p := range particles {
		if p.Radius > rMax {
			rMax = p.Radius
		}
	}
	return rMax
}

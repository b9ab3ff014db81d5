// Package sampler draws random particle configurations for the neighbor
// search: uniform positions in [0,L)² with a fixed radius.
package sampler

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// DefaultRadius is the particle radius used when none is configured.
const DefaultRadius = 0.25

// Generator draws particle configurations from a seeded PCG source, so a
// seed reproduces the same sequence of configurations.
type Generator struct {
	src  rand.Source
	seed uint64
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		src:  rand.NewPCG(seed, seed^0xda3e39cb94b95bdb),
		seed: seed,
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() uint64 { return g.seed }

// Uniform returns n particles with ids 0..n-1, coordinates uniform in
// [0,L) and the given radius.
func (g *Generator) Uniform(n int, l, radius float64) []cellindex.Particle {
	if n <= 0 {
		return nil
	}
	dist := distuv.Uniform{Min: 0, Max: l, Src: g.src}
	particles := make([]cellindex.Particle, n)
	for i := range particles {
		particles[i] = cellindex.Particle{
			ID:     i,
			X:      inDomain(dist.Rand(), l),
			Y:      inDomain(dist.Rand(), l),
			Radius: radius,
		}
	}
	return particles
}

// Uniform is a one-shot draw with a fresh generator.
func Uniform(n int, l, radius float64, seed uint64) []cellindex.Particle {
	return NewGenerator(seed).Uniform(n, l, radius)
}

// inDomain keeps a draw strictly below L; Min + u·(Max-Min) can round up to Max.
func inDomain(v, l float64) float64 {
	if v >= l {
		return math.Nextafter(l, 0)
	}
	if v < 0 {
		return 0
	}
	return v
}

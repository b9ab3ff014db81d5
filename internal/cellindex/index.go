package cellindex

import (
	"context"
	"iter"
	"math"
	"slices"
)

// Index is the neighbor relation of one particle configuration.
// It is immutable once Build returns.
type Index struct {
	cfg       Config
	m         int
	particles []Particle // indexed by id
	grid      *Grid      // nil for brute-force indexes
	pairs     []Pair     // sorted, unique, A < B
	offsets   []int      // adjacency of id is adj[offsets[id]:offsets[id+1]]
	adj       []int
}

// Build validates the input, assigns particles to an M×M grid and collects
// every neighbor pair through the half-stencil traversal.
func Build(particles []Particle, cfg Config) (*Index, error) {
	return BuildContext(context.Background(), particles, cfg)
}

// BuildContext is Build with cancellation checked between grid rows.
func BuildContext(ctx context.Context, particles []Particle, cfg Config) (*Index, error) {
	byID, err := validateInput(particles, cfg)
	if err != nil {
		return nil, err
	}
	m, err := resolveGridSize(cfg, MaxRadius(byID))
	if err != nil {
		return nil, err
	}

	grid := newGrid(byID, cfg.DomainSize, m)
	mapper := NewMapper(cfg.Boundary, m, cfg.DomainSize)

	var pairs []Pair
	if cfg.Workers > 1 && m > 1 {
		pairs, err = traverseParallel(ctx, grid, byID, mapper, cfg.Cutoff, cfg.Workers)
	} else {
		pairs, err = traverseRows(ctx, grid, byID, mapper, cfg.Cutoff, 0, m)
	}
	if err != nil {
		return nil, err
	}

	idx := newIndex(cfg, byID, pairs)
	idx.m = m
	idx.grid = grid
	idx.cfg.Cells = m
	return idx, nil
}

// BruteForce checks all N(N-1)/2 pairs with the same boundary and cutoff
// rule as Build. The cell count in cfg is ignored.
func BruteForce(particles []Particle, cfg Config) (*Index, error) {
	byID, err := validateInput(particles, cfg)
	if err != nil {
		return nil, err
	}
	mapper := NewMapper(cfg.Boundary, 1, cfg.DomainSize)

	var pairs []Pair
	for i := range byID {
		for j := i + 1; j < len(byID); j++ {
			if inRange(mapper, byID[i], byID[j], cfg.Cutoff) {
				pairs = append(pairs, Pair{A: i, B: j})
			}
		}
	}
	return newIndex(cfg, byID, pairs), nil
}

// validateInput checks scalars and particles and returns the particles
// reordered by id. The caller's slice is never modified.
func validateInput(particles []Particle, cfg Config) ([]Particle, error) {
	if err := validateScalars(cfg); err != nil {
		return nil, err
	}
	l := cfg.DomainSize
	byID := make([]Particle, len(particles))
	seen := make([]bool, len(particles))
	for _, p := range particles {
		if p.ID < 0 || p.ID >= len(particles) || seen[p.ID] {
			return nil, &ParticleError{Particle: p, Err: ErrInvalidParticleID}
		}
		if !(p.Radius >= 0) || math.IsInf(p.Radius, 0) {
			return nil, &ParticleError{Particle: p, Err: ErrInvalidRadius}
		}
		if !(p.X >= 0 && p.X < l) || !(p.Y >= 0 && p.Y < l) {
			return nil, &ParticleError{Particle: p, Err: ErrOutOfDomain}
		}
		seen[p.ID] = true
		byID[p.ID] = p
	}
	return byID, nil
}

// traverseRows visits the cells with cx in [from, to) and returns the
// accepted pairs, possibly with duplicates when a periodic grid has M < 3.
func traverseRows(ctx context.Context, g *Grid, byID []Particle, mp CoordinateMapper, rc float64, from, to int) ([]Pair, error) {
	var pairs []Pair
	var targets [len(stencil)]int

	for cx := from; cx < to; cx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for cy := 0; cy < g.m; cy++ {
			home := g.Members(cx, cy)
			if len(home) == 0 {
				continue
			}
			self := g.index(cx, cy)

			// Distinct target cells only: on small periodic grids two
			// offsets can wrap onto the same cell.
			n := 0
			for _, off := range stencil[1:] {
				nx, ny, ok := mp.Map(cx, cy, off[0], off[1])
				if !ok {
					continue
				}
				c := g.index(nx, ny)
				if c == self || slices.Contains(targets[:n], c) {
					continue
				}
				targets[n] = c
				n++
			}

			for i, id1 := range home {
				p1 := byID[id1]
				for _, id2 := range home[i+1:] {
					if inRange(mp, p1, byID[id2], rc) {
						pairs = append(pairs, orderedPair(id1, id2))
					}
				}
				for _, c := range targets[:n] {
					for _, id2 := range g.ids[g.start[c]:g.start[c+1]] {
						if inRange(mp, p1, byID[id2], rc) {
							pairs = append(pairs, orderedPair(id1, id2))
						}
					}
				}
			}
		}
	}
	return pairs, nil
}

func orderedPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func comparePairs(x, y Pair) int {
	if x.A != y.A {
		return x.A - y.A
	}
	return x.B - y.B
}

// newIndex sorts and de-duplicates pairs and lays out the symmetric adjacency.
func newIndex(cfg Config, byID []Particle, pairs []Pair) *Index {
	slices.SortFunc(pairs, comparePairs)
	pairs = slices.Compact(pairs)

	n := len(byID)
	offsets := make([]int, n+1)
	for _, p := range pairs {
		offsets[p.A+1]++
		offsets[p.B+1]++
	}
	for i := 1; i <= n; i++ {
		offsets[i] += offsets[i-1]
	}
	adj := make([]int, 2*len(pairs))
	next := make([]int, n)
	copy(next, offsets[:n])
	for _, p := range pairs {
		adj[next[p.A]] = p.B
		next[p.A]++
		adj[next[p.B]] = p.A
		next[p.B]++
	}
	for i := 0; i < n; i++ {
		slices.Sort(adj[offsets[i]:offsets[i+1]])
	}

	return &Index{
		cfg:       cfg,
		particles: byID,
		pairs:     pairs,
		offsets:   offsets,
		adj:       adj,
	}
}

// NeighborsOf returns the neighbor ids of a particle in ascending order, or
// nil for an unknown id. The returned slice must not be modified.
func (idx *Index) NeighborsOf(id int) []int {
	if id < 0 || id >= len(idx.particles) {
		return nil
	}
	lo, hi := idx.offsets[id], idx.offsets[id+1]
	return idx.adj[lo:hi:hi]
}

// AreNeighbors reports whether a and b are neighbors.
func (idx *Index) AreNeighbors(a, b int) bool {
	_, found := slices.BinarySearch(idx.NeighborsOf(a), b)
	return found
}

// AllPairs yields every unordered neighbor pair once, as (a, b) with a < b,
// in ascending order.
func (idx *Index) AllPairs() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for _, p := range idx.pairs {
			if !yield(p.A, p.B) {
				return
			}
		}
	}
}

// Pairs returns a copy of the sorted pair list.
func (idx *Index) Pairs() []Pair { return slices.Clone(idx.pairs) }

// Neighbors returns a copy of the full relation keyed by particle id.
// Every id is present, with an empty slice when it has no neighbors.
func (idx *Index) Neighbors() map[int][]int {
	out := make(map[int][]int, len(idx.particles))
	for id := range idx.particles {
		out[id] = slices.Clone(idx.NeighborsOf(id))
		if out[id] == nil {
			out[id] = []int{}
		}
	}
	return out
}

// Particle returns the particle with the given id.
func (idx *Index) Particle(id int) (Particle, bool) {
	if id < 0 || id >= len(idx.particles) {
		return Particle{}, false
	}
	return idx.particles[id], true
}

// Particles returns a copy of the particles ordered by id.
func (idx *Index) Particles() []Particle { return slices.Clone(idx.particles) }

// Len returns the number of particles.
func (idx *Index) Len() int { return len(idx.particles) }

// PairCount returns the number of unordered neighbor pairs.
func (idx *Index) PairCount() int { return len(idx.pairs) }

// MeanNeighbors returns the average number of neighbors per particle.
func (idx *Index) MeanNeighbors() float64 {
	if len(idx.particles) == 0 {
		return 0
	}
	return 2 * float64(len(idx.pairs)) / float64(len(idx.particles))
}

// GridSize returns M, or 0 for an index produced by BruteForce.
func (idx *Index) GridSize() int { return idx.m }

// Grid returns the cell grid, or nil for an index produced by BruteForce.
func (idx *Index) Grid() *Grid { return idx.grid }

// Config returns the configuration the index was built with; Cells holds the
// resolved M.
func (idx *Index) Config() Config { return idx.cfg }

// Boundary returns the boundary variant used.
func (idx *Index) Boundary() Boundary { return idx.cfg.Boundary }

// Cutoff returns rc.
func (idx *Index) Cutoff() float64 { return idx.cfg.Cutoff }

// DomainSize returns L.
func (idx *Index) DomainSize() float64 { return idx.cfg.DomainSize }

package cellindex

import "context"

// CellList wraps one particle configuration with the two-state lifecycle
// unbuilt → built. Run is the only transition; once built, further Run
// calls return the cached Index until Reset.
type CellList struct {
	particles []Particle
	cfg       Config
	idx       *Index
}

// NewCellList returns an unbuilt CellList. The particle slice is read, never
// modified, and must not be changed by the caller until Run returns.
func NewCellList(particles []Particle, cfg Config) *CellList {
	return &CellList{particles: particles, cfg: cfg}
}

// Run builds the index on first call and returns the cached one afterwards.
func (c *CellList) Run(ctx context.Context) (*Index, error) {
	if c.idx != nil {
		return c.idx, nil
	}
	idx, err := BuildContext(ctx, c.particles, c.cfg)
	if err != nil {
		return nil, err
	}
	c.idx = idx
	return idx, nil
}

// Built reports whether Run has completed successfully.
func (c *CellList) Built() bool { return c.idx != nil }

// Index returns the built index, or nil while unbuilt.
func (c *CellList) Index() *Index { return c.idx }

// Reset discards the built index so the next Run rebuilds from scratch.
func (c *CellList) Reset() { c.idx = nil }

// Package cellindex owns the cell list (cell index) neighbor search for
// circular particles in a square 2D domain.
//
// Responsibilities: grid-size derivation and validation, particle-to-cell
// assignment, the forward half-stencil traversal, and the periodic and wall
// boundary variants. Key types: Particle, Config, Grid, Index, CellList.
//
// Comparisons that fall within rounding of a cell edge, the cutoff or the
// L/M limit are decided in exact arithmetic on the float64 inputs, so Build
// and BruteForce always report the same pairs.
//
// Dependency rule: this package is pure computation. It never logs, never
// touches the filesystem, and never imports storage or rendering packages.
package cellindex

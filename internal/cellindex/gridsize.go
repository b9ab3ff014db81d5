package cellindex

import (
	"fmt"
	"math"
)

// MaxGridSize caps M per axis so a tiny cutoff cannot allocate an absurd grid.
// Any M below the largest valid one is still valid, only slower.
const MaxGridSize = 2048

// DeriveGridSize returns the largest M >= 1 with L/M >= rc + 2·rMax.
//
// M = max(1, floor(L / (rc + 2·rMax))), with the inequality checked exactly on
// the given values: rc = 0.1 is slightly above one tenth, so DeriveGridSize(1,
// 0.1, 0) is 9. Degenerate inputs (non-positive or non-finite L, or a
// non-positive interaction reach) return 1.
func DeriveGridSize(l, rc, rMax float64) int {
	reach := rc + 2*rMax
	if !(l > 0) || !(reach > 0) || !finite(l, rc, rMax, reach) {
		return 1
	}
	m := math.Floor(l / reach)
	if m >= math.MaxInt32 {
		return math.MaxInt32
	}
	// l/reach is rounded, so floor can miss the true maximum by one either way.
	n := max(int(m), 1)
	for n > 1 && !fits(l, rc, rMax, n) {
		n--
	}
	for n < math.MaxInt32 && fits(l, rc, rMax, n+1) {
		n++
	}
	return n
}

// ValidateGridSize fails with ErrInvalidConfiguration when M < 1,
// M > MaxGridSize or L/M < rc + 2·rMax.
func ValidateGridSize(l, rc, rMax float64, m int) error {
	if m < 1 {
		return fmt.Errorf("%w: cell count M=%d must be at least 1", ErrInvalidConfiguration, m)
	}
	if m > MaxGridSize {
		return fmt.Errorf("%w: cell count M=%d exceeds limit %d", ErrInvalidConfiguration, m, MaxGridSize)
	}
	reach := rc + 2*rMax
	if !finite(l, rc, rMax) || !fits(l, rc, rMax, m) {
		return fmt.Errorf("%w: L/M = %g/%d = %g < rc + 2·rMax = %g",
			ErrInvalidConfiguration, l, m, l/float64(m), reach)
	}
	return nil
}

// validateScalars checks the domain and cutoff before any particle is looked at.
func validateScalars(cfg Config) error {
	if !(cfg.DomainSize > 0) || math.IsInf(cfg.DomainSize, 0) {
		return fmt.Errorf("%w: domain size L=%g must be positive and finite", ErrInvalidConfiguration, cfg.DomainSize)
	}
	if !(cfg.Cutoff >= 0) || math.IsInf(cfg.Cutoff, 0) {
		return fmt.Errorf("%w: cutoff rc=%g must be non-negative and finite", ErrInvalidConfiguration, cfg.Cutoff)
	}
	if cfg.Cells < 0 {
		return fmt.Errorf("%w: cell count M=%d must not be negative", ErrInvalidConfiguration, cfg.Cells)
	}
	if cfg.Boundary != Periodic && cfg.Boundary != Wall {
		return fmt.Errorf("%w: unknown boundary %v", ErrInvalidConfiguration, cfg.Boundary)
	}
	return nil
}

// resolveGridSize picks the cell count for a build: the caller's M when set,
// otherwise the derived one capped at MaxGridSize. Either way it is validated.
func resolveGridSize(cfg Config, rMax float64) (int, error) {
	m := cfg.Cells
	if m == 0 {
		m = min(DeriveGridSize(cfg.DomainSize, cfg.Cutoff, rMax), MaxGridSize)
	}
	if err := ValidateGridSize(cfg.DomainSize, cfg.Cutoff, rMax, m); err != nil {
		return 0, err
	}
	return m, nil
}

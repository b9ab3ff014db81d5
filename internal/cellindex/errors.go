package cellindex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates a cell count violating L/M >= rc + 2·rMax,
	// or domain/cutoff values that cannot describe a domain.
	ErrInvalidConfiguration = errors.New("cellindex: invalid configuration")
	// ErrOutOfDomain indicates a particle coordinate outside [0,L).
	ErrOutOfDomain = errors.New("cellindex: particle outside domain")
	// ErrInvalidParticleID indicates ids that are not a permutation of 0..N-1.
	ErrInvalidParticleID = errors.New("cellindex: particle ids must be unique and cover 0..N-1")
	// ErrInvalidRadius indicates a negative or non-finite particle radius.
	ErrInvalidRadius = errors.New("cellindex: particle radius must be a finite non-negative number")
)

// ParticleError reports which particle failed input validation.
type ParticleError struct {
	Particle Particle
	Err      error
}

func (e *ParticleError) Error() string {
	p := e.Particle
	return fmt.Sprintf("%v: id=%d x=%g y=%g r=%g", e.Err, p.ID, p.X, p.Y, p.Radius)
}

func (e *ParticleError) Unwrap() error { return e.Err }

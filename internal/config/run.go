package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/run.defaults.json"

// Defaults used when a field is absent from the config file.
const (
	DefaultDomainSize    = 20.0
	DefaultParticleCount = 100
	DefaultCutoff        = 5.0
	DefaultRadius        = 0.25
	DefaultWorkers       = 1
	DefaultOutputDir     = "."
)

// RunConfig describes one neighbor run. Pointer fields distinguish "not
// set" from zero, so a partial file only overrides what it names.
type RunConfig struct {
	DomainSize    *float64 `json:"domain_size,omitempty"`
	ParticleCount *int     `json:"particle_count,omitempty"`
	Cutoff        *float64 `json:"cutoff,omitempty"`
	Radius        *float64 `json:"radius,omitempty"`
	Cells         *int     `json:"cells,omitempty"` // 0 derives M
	Periodic      *bool    `json:"periodic,omitempty"`
	Seed          *uint64  `json:"seed,omitempty"` // 0 seeds from the clock
	Workers       *int     `json:"workers,omitempty"`
	OutputDir     *string  `json:"output_dir,omitempty"`
	Highlight     *int     `json:"highlight,omitempty"` // -1 picks a random particle
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyRunConfig returns a RunConfig with all fields set to nil.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field set to its default.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		DomainSize:    ptrFloat64(DefaultDomainSize),
		ParticleCount: ptrInt(DefaultParticleCount),
		Cutoff:        ptrFloat64(DefaultCutoff),
		Radius:        ptrFloat64(DefaultRadius),
		Cells:         ptrInt(0),
		Periodic:      ptrBool(true),
		Seed:          ptrUint64(0),
		Workers:       ptrInt(DefaultWorkers),
		OutputDir:     ptrString(DefaultOutputDir),
		Highlight:     ptrInt(-1),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from cmd/tools/cellbench/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set. Cross-field checks such as
// L/M >= rc + 2r are left to cellindex, which owns that rule.
func (c *RunConfig) Validate() error {
	if c.DomainSize != nil && !(*c.DomainSize > 0) {
		return fmt.Errorf("domain_size must be positive, got %g", *c.DomainSize)
	}
	if c.ParticleCount != nil && *c.ParticleCount < 0 {
		return fmt.Errorf("particle_count must be non-negative, got %d", *c.ParticleCount)
	}
	if c.Cutoff != nil && !(*c.Cutoff >= 0) {
		return fmt.Errorf("cutoff must be non-negative, got %g", *c.Cutoff)
	}
	if c.Radius != nil && !(*c.Radius >= 0) {
		return fmt.Errorf("radius must be non-negative, got %g", *c.Radius)
	}
	if c.Cells != nil && *c.Cells < 0 {
		return fmt.Errorf("cells must be non-negative, got %d", *c.Cells)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.Highlight != nil && c.ParticleCount != nil && *c.Highlight >= *c.ParticleCount {
		return fmt.Errorf("highlight %d out of range for %d particles", *c.Highlight, *c.ParticleCount)
	}
	return nil
}

// Merge copies every field set in other over c.
func (c *RunConfig) Merge(other *RunConfig) {
	if other == nil {
		return
	}
	if other.DomainSize != nil {
		c.DomainSize = other.DomainSize
	}
	if other.ParticleCount != nil {
		c.ParticleCount = other.ParticleCount
	}
	if other.Cutoff != nil {
		c.Cutoff = other.Cutoff
	}
	if other.Radius != nil {
		c.Radius = other.Radius
	}
	if other.Cells != nil {
		c.Cells = other.Cells
	}
	if other.Periodic != nil {
		c.Periodic = other.Periodic
	}
	if other.Seed != nil {
		c.Seed = other.Seed
	}
	if other.Workers != nil {
		c.Workers = other.Workers
	}
	if other.OutputDir != nil {
		c.OutputDir = other.OutputDir
	}
	if other.Highlight != nil {
		c.Highlight = other.Highlight
	}
}

// GetDomainSize returns the domain_size value or the default.
func (c *RunConfig) GetDomainSize() float64 {
	if c.DomainSize == nil {
		return DefaultDomainSize
	}
	return *c.DomainSize
}

// GetParticleCount returns the particle_count value or the default.
func (c *RunConfig) GetParticleCount() int {
	if c.ParticleCount == nil {
		return DefaultParticleCount
	}
	return *c.ParticleCount
}

// GetCutoff returns the cutoff value or the default.
func (c *RunConfig) GetCutoff() float64 {
	if c.Cutoff == nil {
		return DefaultCutoff
	}
	return *c.Cutoff
}

// GetRadius returns the radius value or the default.
func (c *RunConfig) GetRadius() float64 {
	if c.Radius == nil {
		return DefaultRadius
	}
	return *c.Radius
}

// GetCells returns the cells value, 0 meaning derive.
func (c *RunConfig) GetCells() int {
	if c.Cells == nil {
		return 0
	}
	return *c.Cells
}

// GetPeriodic returns the periodic value or the default (true).
func (c *RunConfig) GetPeriodic() bool {
	if c.Periodic == nil {
		return true
	}
	return *c.Periodic
}

// GetSeed returns the seed value, 0 meaning seed from the clock.
func (c *RunConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetWorkers returns the workers value or the default.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetOutputDir returns the output_dir value or the default.
func (c *RunConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetHighlight returns the highlight value or -1.
func (c *RunConfig) GetHighlight() int {
	if c.Highlight == nil {
		return -1
	}
	return *c.Highlight
}

// Boundary maps the periodic flag onto a cellindex boundary.
func (c *RunConfig) Boundary() cellindex.Boundary {
	if c.GetPeriodic() {
		return cellindex.Periodic
	}
	return cellindex.Wall
}

// IndexConfig returns the cellindex configuration described by c.
func (c *RunConfig) IndexConfig() cellindex.Config {
	return cellindex.Config{
		DomainSize: c.GetDomainSize(),
		Cutoff:     c.GetCutoff(),
		Cells:      c.GetCells(),
		Boundary:   c.Boundary(),
		Workers:    c.GetWorkers(),
	}
}

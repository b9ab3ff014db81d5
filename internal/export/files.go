package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// File names written by WriteRunFiles.
const (
	NeighborsFile = "neighbors.txt"
	ParticlesFile = "static_particles.tsv"
	SummaryFile   = "summary.json"
)

// WriteRunFiles writes the neighbor listing, particle listing and summary
// into dir, creating it if needed. It returns the paths written.
func WriteRunFiles(dir string, idx *cellindex.Index, s Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	particles := idx.Particles()
	withRadius := cellindex.MaxRadius(particles) > 0

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{NeighborsFile, func(f *os.File) error { return WriteNeighbors(f, idx) }},
		{ParticlesFile, func(f *os.File) error { return WriteParticles(f, particles, idx.DomainSize(), withRadius) }},
		{SummaryFile, func(f *os.File) error { return WriteSummaryJSON(f, s) }},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// LoadParticlesFile reads a particle listing from disk.
func LoadParticlesFile(path string) ([]cellindex.Particle, float64, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open particle listing: %w", err)
	}
	defer f.Close()
	return ReadParticles(f)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

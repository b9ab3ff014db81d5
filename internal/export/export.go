// Package export writes and reads the plain-text listings produced by a
// neighbor run: the neighbor listing, the particle listing and a JSON
// summary.
//
// Neighbor listing: one line per particle id, ascending, "id\tn1\tn2...".
// Particle listing: a header "N\tL", then "id\tx\ty[\tradius]" per particle.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// ErrMalformed indicates a listing that cannot be parsed.
var ErrMalformed = errors.New("export: malformed listing")

// WriteNeighbors writes the neighbor listing of idx.
func WriteNeighbors(w io.Writer, idx *cellindex.Index) error {
	bw := bufio.NewWriter(w)
	for id := 0; id < idx.Len(); id++ {
		bw.WriteString(strconv.Itoa(id))
		for _, nb := range idx.NeighborsOf(id) {
			bw.WriteByte('\t')
			bw.WriteString(strconv.Itoa(nb))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadNeighbors parses a neighbor listing into a map keyed by particle id.
func ReadNeighbors(r io.Reader) (map[int][]int, error) {
	out := make(map[int][]int)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: id %q", ErrMalformed, line, fields[0])
		}
		nbs := make([]int, 0, len(fields)-1)
		for _, f := range fields[1:] {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			nb, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: neighbor %q", ErrMalformed, line, f)
			}
			nbs = append(nbs, nb)
		}
		out[id] = nbs
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read neighbor listing: %w", err)
	}
	return out, nil
}

// WriteParticles writes the particle listing. The radius column is written
// only when withRadius is set.
func WriteParticles(w io.Writer, particles []cellindex.Particle, l float64, withRadius bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\t%s\n", len(particles), formatFloat(l))
	for _, p := range particles {
		fmt.Fprintf(bw, "%d\t%s\t%s", p.ID, formatFloat(p.X), formatFloat(p.Y))
		if withRadius {
			fmt.Fprintf(bw, "\t%s", formatFloat(p.Radius))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadParticles parses a particle listing and returns the particles and L.
// Rows without a radius column are point particles.
func ReadParticles(r io.Reader) ([]cellindex.Particle, float64, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, 0, fmt.Errorf("read particle listing: %w", err)
		}
		return nil, 0, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	header := strings.Fields(sc.Text())
	if len(header) != 2 {
		return nil, 0, fmt.Errorf("%w: header %q, want \"N<TAB>L\"", ErrMalformed, sc.Text())
	}
	n, err := strconv.Atoi(header[0])
	if err != nil || n < 0 {
		return nil, 0, fmt.Errorf("%w: particle count %q", ErrMalformed, header[0])
	}
	l, err := strconv.ParseFloat(header[1], 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: domain size %q", ErrMalformed, header[1])
	}

	particles := make([]cellindex.Particle, 0, n)
	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 && len(fields) != 4 {
			return nil, 0, fmt.Errorf("%w: line %d has %d columns", ErrMalformed, line, len(fields))
		}
		var p cellindex.Particle
		if p.ID, err = strconv.Atoi(fields[0]); err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: id %q", ErrMalformed, line, fields[0])
		}
		vals := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, 0, fmt.Errorf("%w: line %d: value %q", ErrMalformed, line, f)
			}
		}
		p.X, p.Y = vals[0], vals[1]
		if len(vals) == 3 {
			p.Radius = vals[2]
		}
		particles = append(particles, p)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("read particle listing: %w", err)
	}
	if len(particles) != n {
		return nil, 0, fmt.Errorf("%w: header says %d particles, found %d", ErrMalformed, n, len(particles))
	}
	return particles, l, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Summary describes one neighbor run.
type Summary struct {
	RunID         string        `json:"run_id,omitempty"`
	Particles     int           `json:"particles"`
	DomainSize    float64       `json:"domain_size"`
	Cutoff        float64       `json:"cutoff"`
	MaxRadius     float64       `json:"max_radius"`
	Cells         int           `json:"cells"`
	Boundary      string        `json:"boundary"`
	Pairs         int           `json:"pairs"`
	MeanNeighbors float64       `json:"mean_neighbors"`
	OccupiedCells int           `json:"occupied_cells"`
	MaxOccupancy  int           `json:"max_occupancy"`
	BuildDuration time.Duration `json:"build_duration_ns"`
	BuildMillis   float64       `json:"build_ms"`
	Seed          uint64        `json:"seed,omitempty"`
}

// NewSummary fills a Summary from a built index.
func NewSummary(idx *cellindex.Index, took time.Duration) Summary {
	s := Summary{
		Particles:     idx.Len(),
		DomainSize:    idx.DomainSize(),
		Cutoff:        idx.Cutoff(),
		MaxRadius:     cellindex.MaxRadius(idx.Particles()),
		Cells:         idx.GridSize(),
		Boundary:      idx.Boundary().String(),
		Pairs:         idx.PairCount(),
		MeanNeighbors: idx.MeanNeighbors(),
		BuildDuration: took,
		BuildMillis:   float64(took) / float64(time.Millisecond),
	}
	if g := idx.Grid(); g != nil {
		for _, n := range g.Occupancy() {
			if n > 0 {
				s.OccupiedCells++
			}
			s.MaxOccupancy = max(s.MaxOccupancy, n)
		}
	}
	return s
}

// WriteSummaryJSON writes s as indented JSON.
func WriteSummaryJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Command cellbench times cell-list builds against the all-pairs baseline
// for a list of particle counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/banshee-data/cellindex/internal/bench"
	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/monitoring"
	"github.com/banshee-data/cellindex/internal/render"
	"github.com/banshee-data/cellindex/internal/version"
)

// Config holds the command-line configuration.
type Config struct {
	Sweep   bench.SweepConfig
	CSVPath string
	HTML    string
	Verbose bool
	Version bool
}

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Version {
		fmt.Println(version.String("cellbench"))
		return
	}
	monitoring.SetVerbose(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("cellbench: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	var counts string
	periodic := true

	fs.Float64Var(&cfg.Sweep.DomainSize, "L", 100, "Domain side length")
	fs.Float64Var(&cfg.Sweep.Cutoff, "rc", 2.5, "Cutoff distance")
	fs.Float64Var(&cfg.Sweep.Radius, "radius", 0.25, "Particle radius")
	fs.StringVar(&counts, "n", "100,1000,5000,10000", "Comma-separated particle counts")
	fs.IntVar(&cfg.Sweep.Repeats, "repeats", 5, "Configurations per particle count")
	fs.BoolVar(&periodic, "periodic", true, "Periodic boundaries (false for walls)")
	fs.Uint64Var(&cfg.Sweep.Seed, "seed", 1, "Sampling seed")
	fs.IntVar(&cfg.Sweep.Workers, "workers", 1, "Parallel traversal workers")
	fs.IntVar(&cfg.Sweep.BruteLimit, "brute-limit", 20000, "Skip the brute-force baseline above this N (0 always runs it)")
	fs.StringVar(&cfg.CSVPath, "csv", "", "Write results as CSV to this path")
	fs.StringVar(&cfg.HTML, "html", "", "Write an HTML timing chart to this path")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cfg.Version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if !periodic {
		cfg.Sweep.Boundary = cellindex.Wall
	}
	n, err := parseCounts(counts)
	if err != nil {
		return cfg, err
	}
	cfg.Sweep.Counts = n
	return cfg, nil
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid particle count %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no particle counts given")
	}
	return out, nil
}

func run(ctx context.Context, cfg Config, stdout io.Writer) error {
	defer monitoring.Timed("sweep")()

	results, err := bench.Sweep(ctx, cfg.Sweep)
	if err != nil {
		return err
	}
	if err := bench.WriteTable(stdout, results); err != nil {
		return err
	}

	if cfg.CSVPath != "" {
		if err := writeFile(cfg.CSVPath, func(w io.Writer) error { return bench.WriteCSV(w, results) }); err != nil {
			return err
		}
		monitoring.Logf("Results exported to: %s", cfg.CSVPath)
	}
	if cfg.HTML != "" {
		if err := writeFile(cfg.HTML, func(w io.Writer) error { return render.WriteTimingHTML(w, results) }); err != nil {
			return err
		}
		monitoring.Logf("Chart written to: %s", cfg.HTML)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
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

// Command cellindex builds the neighbor relation of a particle
// configuration with a cell list and writes the listings, optional plots
// and an optional sqlite record of the run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/config"
	"github.com/banshee-data/cellindex/internal/db"
	"github.com/banshee-data/cellindex/internal/export"
	"github.com/banshee-data/cellindex/internal/monitoring"
	"github.com/banshee-data/cellindex/internal/render"
	"github.com/banshee-data/cellindex/internal/sampler"
	"github.com/banshee-data/cellindex/internal/server"
	"github.com/banshee-data/cellindex/internal/version"
)

// options are the flags that are not part of RunConfig.
type options struct {
	ConfigPath string
	InPath     string
	PNGPath    string
	HTMLPath   string
	GridLines  bool
	DBPath     string
	Serve      string
	Verbose    bool
}

// result is what a run produced, for logging and tests.
type result struct {
	Index   *cellindex.Index
	Summary export.Summary
	Files   []string
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:], os.Stdout, os.Stdin); err != nil {
			log.Fatalf("cellindex migrate: %v", err)
		}
		return
	}

	opts, cfg, showVersion, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if showVersion {
		fmt.Println(version.String("cellindex"))
		return
	}
	monitoring.SetVerbose(opts.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, cfg, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("cellindex: %v", err)
	}
}

// runMigrate handles "cellindex migrate [-db path] <action> [N]".
func runMigrate(args []string, stdout io.Writer, stdin io.Reader) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "cellindex.db", "Path to the sqlite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout, stdin)
}

// parseFlags parses args into options and a RunConfig. Values come from
// the defaults, then the -config file, then any flag given explicitly.
func parseFlags(fs *flag.FlagSet, args []string) (options, *config.RunConfig, bool, error) {
	var opts options
	var showVersion bool

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to a JSON run config")
	fs.StringVar(&opts.InPath, "in", "", "Particle listing to load instead of sampling")
	fs.StringVar(&opts.PNGPath, "png", "", "Write a PNG plot to this path")
	fs.StringVar(&opts.HTMLPath, "html", "", "Write an interactive HTML chart to this path")
	fs.BoolVar(&opts.GridLines, "grid", true, "Draw cell boundaries in the PNG plot")
	fs.StringVar(&opts.DBPath, "db", "", "Record the run in this sqlite database")
	fs.StringVar(&opts.Serve, "serve", "", "After the run, serve the viewer and admin routes on this address (requires -db)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	l := fs.Float64("L", config.DefaultDomainSize, "Domain side length")
	n := fs.Int("N", config.DefaultParticleCount, "Number of particles to sample")
	rc := fs.Float64("rc", config.DefaultCutoff, "Cutoff distance")
	radius := fs.Float64("radius", config.DefaultRadius, "Radius of sampled particles")
	m := fs.Int("M", 0, "Cells per axis (0 derives the largest valid M)")
	periodic := fs.Bool("periodic", true, "Periodic boundaries (false for walls)")
	seed := fs.Uint64("seed", 0, "Sampling seed (0 seeds from the clock)")
	workers := fs.Int("workers", config.DefaultWorkers, "Parallel traversal workers")
	out := fs.String("out", config.DefaultOutputDir, "Output directory for listings")
	highlight := fs.Int("highlight", -1, "Particle to highlight in plots (-1 picks one at random)")

	if err := fs.Parse(args); err != nil {
		return opts, nil, false, err
	}

	cfg := config.DefaultRunConfig()
	if opts.ConfigPath != "" {
		fileCfg, err := config.LoadRunConfig(opts.ConfigPath)
		if err != nil {
			return opts, nil, false, err
		}
		cfg.Merge(fileCfg)
	}

	set := config.EmptyRunConfig()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "L":
			set.DomainSize = l
		case "N":
			set.ParticleCount = n
		case "rc":
			set.Cutoff = rc
		case "radius":
			set.Radius = radius
		case "M":
			set.Cells = m
		case "periodic":
			set.Periodic = periodic
		case "seed":
			set.Seed = seed
		case "workers":
			set.Workers = workers
		case "out":
			set.OutputDir = out
		case "highlight":
			set.Highlight = highlight
		}
	})
	cfg.Merge(set)
	if err := cfg.Validate(); err != nil {
		return opts, nil, false, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Serve != "" && opts.DBPath == "" {
		return opts, nil, false, errors.New("-serve requires -db")
	}
	return opts, cfg, showVersion, nil
}

func run(ctx context.Context, cfg *config.RunConfig, opts options) (*result, error) {
	icfg := cfg.IndexConfig()

	var particles []cellindex.Particle
	seed := cfg.GetSeed()
	if opts.InPath != "" {
		loaded, l, err := export.LoadParticlesFile(opts.InPath)
		if err != nil {
			return nil, err
		}
		particles = loaded
		icfg.DomainSize = l
		monitoring.Logf("loaded %d particles from %s (L=%g)", len(particles), opts.InPath, l)
	} else {
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		particles = sampler.Uniform(cfg.GetParticleCount(), icfg.DomainSize, cfg.GetRadius(), seed)
		monitoring.Debugf("sampled %d particles with seed %d", len(particles), seed)
	}

	start := time.Now()
	idx, err := cellindex.BuildContext(ctx, particles, icfg)
	took := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	monitoring.Logf("N=%d L=%g rc=%g M=%d %s: %d pairs in %v",
		idx.Len(), idx.DomainSize(), idx.Cutoff(), idx.GridSize(), idx.Boundary(), idx.PairCount(), took)

	summary := export.NewSummary(idx, took)
	monitoring.Debugf("%d of %d cells occupied, at most %d particles per cell",
		summary.OccupiedCells, idx.GridSize()*idx.GridSize(), summary.MaxOccupancy)
	if opts.InPath == "" {
		summary.Seed = seed
	}

	var database *db.DB
	var store *db.RunStore
	if opts.DBPath != "" {
		database, err = db.NewDB(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer database.Close()
		store = db.NewRunStore(database)
		params := map[string]any{"workers": icfg.Workers}
		if summary.Seed != 0 {
			params["seed"] = summary.Seed
		}
		if opts.InPath != "" {
			params["input"] = opts.InPath
		}
		summary.RunID, err = store.Insert(&db.Run{Params: params}, idx, took)
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		monitoring.Logf("recorded run %s in %s", summary.RunID, opts.DBPath)
	}

	files, err := export.WriteRunFiles(cfg.GetOutputDir(), idx, summary)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		monitoring.Debugf("wrote %s", f)
	}

	highlight := pickHighlight(cfg.GetHighlight(), idx.Len(), seed)
	if opts.PNGPath != "" {
		if err := render.RenderPNG(opts.PNGPath, idx, highlight, render.PNGOptions{GridLines: opts.GridLines}); err != nil {
			return nil, err
		}
		files = append(files, opts.PNGPath)
	}
	if opts.HTMLPath != "" {
		if err := writeHTML(opts.HTMLPath, idx, highlight); err != nil {
			return nil, err
		}
		files = append(files, opts.HTMLPath)
	}

	res := &result{Index: idx, Summary: summary, Files: files}
	if opts.Serve == "" {
		return res, nil
	}

	mux := http.NewServeMux()
	server.NewServer(store).RegisterRoutes(mux)
	if err := database.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	monitoring.Logf("serving run %s at http://%s/runs/%s/chart", summary.RunID, opts.Serve, summary.RunID)
	if err := server.ListenAndServe(ctx, opts.Serve, server.LoggingMiddleware(mux)); err != nil {
		return nil, err
	}
	return res, nil
}

// pickHighlight resolves -1 to a particle chosen from seed.
func pickHighlight(h, n int, seed uint64) int {
	if h >= 0 || n == 0 {
		return h
	}
	return rand.New(rand.NewPCG(seed, seed>>1)).IntN(n)
}

func writeHTML(path string, idx *cellindex.Index, highlight int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WriteScatterHTML(f, idx, highlight); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

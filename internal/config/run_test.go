package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.GetDomainSize() != 20 {
		t.Errorf("GetDomainSize() = %g, want 20", cfg.GetDomainSize())
	}
	if cfg.GetCutoff() != 5 {
		t.Errorf("GetCutoff() = %g, want 5", cfg.GetCutoff())
	}
	if cfg.GetRadius() != 0.25 {
		t.Errorf("GetRadius() = %g, want 0.25", cfg.GetRadius())
	}
	if cfg.Boundary() != cellindex.Periodic {
		t.Errorf("Boundary() = %v, want periodic", cfg.Boundary())
	}
	if cfg.GetHighlight() != -1 {
		t.Errorf("GetHighlight() = %d, want -1", cfg.GetHighlight())
	}
}

func TestEmptyRunConfig_Getters(t *testing.T) {
	cfg := EmptyRunConfig()

	if cfg.GetParticleCount() != DefaultParticleCount {
		t.Errorf("GetParticleCount() = %d, want %d", cfg.GetParticleCount(), DefaultParticleCount)
	}
	if cfg.GetCells() != 0 {
		t.Errorf("GetCells() = %d, want 0", cfg.GetCells())
	}
	if !cfg.GetPeriodic() {
		t.Error("GetPeriodic() should default to true")
	}
	if cfg.GetSeed() != 0 {
		t.Errorf("GetSeed() = %d, want 0", cfg.GetSeed())
	}
	if cfg.GetWorkers() != 1 {
		t.Errorf("GetWorkers() = %d, want 1", cfg.GetWorkers())
	}
	if cfg.GetOutputDir() != "." {
		t.Errorf("GetOutputDir() = %q, want \".\"", cfg.GetOutputDir())
	}
}

func TestLoadRunConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.json")

	testJSON := `{
  "domain_size": 50,
  "particle_count": 5000,
  "cutoff": 3,
  "radius": 0,
  "periodic": false,
  "workers": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadRunConfig(configPath)
	if err != nil {
		t.Fatalf("LoadRunConfig failed: %v", err)
	}

	idx := cfg.IndexConfig()
	if idx.DomainSize != 50 || idx.Cutoff != 3 || idx.Workers != 4 {
		t.Errorf("IndexConfig() = %+v", idx)
	}
	if idx.Boundary != cellindex.Wall {
		t.Errorf("Boundary = %v, want wall", idx.Boundary)
	}
	if cfg.GetParticleCount() != 5000 {
		t.Errorf("GetParticleCount() = %d, want 5000", cfg.GetParticleCount())
	}
	if cfg.GetRadius() != 0 {
		t.Errorf("GetRadius() = %g, want explicit 0", cfg.GetRadius())
	}
	// Omitted fields fall back to defaults.
	if cfg.GetHighlight() != -1 {
		t.Errorf("GetHighlight() = %d, want -1", cfg.GetHighlight())
	}
}

func TestLoadRunConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	cases := []struct {
		name string
		path string
		want string
	}{
		{"extension", write("run.yaml", "{}"), ".json extension"},
		{"missing", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"syntax", write("bad.json", "{"), "failed to parse"},
		{"negative cutoff", write("neg.json", `{"cutoff": -1}`), "cutoff must be non-negative"},
		{"zero domain", write("dom.json", `{"domain_size": 0}`), "domain_size must be positive"},
		{"workers", write("w.json", `{"workers": 0}`), "workers must be at least 1"},
		{"highlight", write("h.json", `{"particle_count": 3, "highlight": 3}`), "highlight 3 out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRunConfig(tc.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadRunConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.json")
	big := make([]byte, 1024*1024+1)
	if err := os.WriteFile(p, big, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRunConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultRunConfig()
	override := EmptyRunConfig()
	override.Cutoff = ptrFloat64(1.5)
	override.Periodic = ptrBool(false)
	override.Seed = ptrUint64(7)

	base.Merge(override)
	base.Merge(nil)

	if base.GetCutoff() != 1.5 {
		t.Errorf("GetCutoff() = %g, want 1.5", base.GetCutoff())
	}
	if base.GetPeriodic() {
		t.Error("GetPeriodic() should be false after merge")
	}
	if base.GetSeed() != 7 {
		t.Errorf("GetSeed() = %d, want 7", base.GetSeed())
	}
	if base.GetDomainSize() != DefaultDomainSize {
		t.Errorf("unset field changed: GetDomainSize() = %g", base.GetDomainSize())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetDomainSize() != DefaultDomainSize {
		t.Errorf("defaults file domain_size = %g, want %g", cfg.GetDomainSize(), DefaultDomainSize)
	}
	if cfg.GetParticleCount() != DefaultParticleCount {
		t.Errorf("defaults file particle_count = %d, want %d", cfg.GetParticleCount(), DefaultParticleCount)
	}
}

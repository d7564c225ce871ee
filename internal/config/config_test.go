package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, n := range []string{
		"PROTGRAPH_PROTEIN_THRESHOLD", "PROTEIN_PARAMETER",
		"PROTGRAPH_PEPTIDE_THRESHOLD", "PEPTIDE_PARAMETER",
		"PROTGRAPH_EXACT_TIMEOUT", "PROTGRAPH_CACHE_DIR", "PROTGRAPH_DATASET",
		"JAVA_BIN", "PEPTIDEMATCH_JAR",
	} {
		t.Setenv(n, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
	if cfg.ProteinThreshold != 5000 || cfg.PeptideThreshold != 10000 {
		t.Errorf("Expected thresholds 5000/10000, got: %d/%d", cfg.ProteinThreshold, cfg.PeptideThreshold)
	}
}

func TestDefaultExactTimeout(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if opts := cfg.SolverOptions(); opts.ExactTimeout != time.Minute {
		t.Errorf("Expected default exact timeout %v, got: %v", time.Minute, opts.ExactTimeout)
	}

	t.Setenv("PROTGRAPH_EXACT_TIMEOUT", "0")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.ExactTimeout != 0 {
		t.Errorf("Expected unlimited exact timeout, got: %v", cfg.ExactTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected unlimited timeout to be valid, got: %v", err)
	}
}

func TestLoadPriority(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "protgraph.yaml")
	yml := "protein_threshold: 100\npeptide_threshold: 200\nexact_timeout: 30s\ndataset: 3_2\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROTGRAPH_PEPTIDE_THRESHOLD", "300")
	t.Setenv("PROTEIN_PARAMETER", "150")
	t.Setenv("PROTGRAPH_CACHE_DIR", "/tmp/covers")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := Default()
	want.ProteinThreshold = 150
	want.PeptideThreshold = 300
	want.ExactTimeout = 30 * time.Second
	want.Dataset = "3_2"
	want.CacheDir = "/tmp/covers"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.SolverOptions()
	if opts.ProteinThreshold != 150 || opts.PeptideThreshold != 300 || opts.ExactTimeout != 30*time.Second {
		t.Errorf("Unexpected solver options: %+v", opts)
	}
}

func TestLoadBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROTGRAPH_PROTEIN_THRESHOLD", "many")
	if _, err := Load(""); err == nil {
		t.Errorf("Expected error for non-numeric threshold")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to be valid, got: %v", err)
	}
	cfg.PeptideThreshold = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Expected error: %v, got: %v", ErrInvalidThreshold, err)
	}
	cfg = Default()
	cfg.ExactTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected error for negative timeout")
	}
}

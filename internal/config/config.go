// Package config loads run settings. Values come from defaults, then an
// optional YAML file, then the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/524D/protgraph/internal/parsimony"
)

// ErrInvalidThreshold is returned by Validate for a non-positive dispatch
// threshold.
var ErrInvalidThreshold = errors.New("threshold must be positive")

// Config holds the settings of a run.
type Config struct {
	// Solver dispatch: above either threshold the greedy solver is used
	ProteinThreshold int `yaml:"protein_threshold"`
	PeptideThreshold int `yaml:"peptide_threshold"`
	// ExactTimeout bounds the exact solver, after which the greedy cover
	// is used; 0 means unlimited
	ExactTimeout time.Duration `yaml:"exact_timeout"`
	// CacheDir holds the cover cache; empty disables it
	CacheDir string `yaml:"cache_dir"`
	Dataset  string `yaml:"dataset"`

	JavaBin         string `yaml:"java_bin"`
	PeptideMatchJar string `yaml:"peptidematch_jar"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ProteinThreshold: parsimony.DefaultProteinThreshold,
		PeptideThreshold: parsimony.DefaultPeptideThreshold,
		ExactTimeout:     parsimony.DefaultExactTimeout,
		Dataset:          "1_1",
		JavaBin:          "java",
		PeptideMatchJar:  "./lib/PeptideMatchCMD.jar",
	}
}

// Load returns the defaults overridden by the YAML file at path (if path is
// not empty) and by the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// The first variable that is set wins
var (
	envProteinThreshold = []string{"PROTGRAPH_PROTEIN_THRESHOLD", "PROTEIN_PARAMETER"}
	envPeptideThreshold = []string{"PROTGRAPH_PEPTIDE_THRESHOLD", "PEPTIDE_PARAMETER"}
)

func lookupEnv(names ...string) (string, string, bool) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return n, v, true
		}
	}
	return "", "", false
}

func loadEnv(cfg *Config) error {
	if n, v, ok := lookupEnv(envProteinThreshold...); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}
		cfg.ProteinThreshold = i
	}
	if n, v, ok := lookupEnv(envPeptideThreshold...); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}
		cfg.PeptideThreshold = i
	}
	if v := os.Getenv("PROTGRAPH_EXACT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROTGRAPH_EXACT_TIMEOUT: %w", err)
		}
		cfg.ExactTimeout = d
	}
	if v := os.Getenv("PROTGRAPH_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("PROTGRAPH_DATASET"); v != "" {
		cfg.Dataset = v
	}
	if v := os.Getenv("JAVA_BIN"); v != "" {
		cfg.JavaBin = v
	}
	if v := os.Getenv("PEPTIDEMATCH_JAR"); v != "" {
		cfg.PeptideMatchJar = v
	}
	return nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.ProteinThreshold <= 0 {
		return fmt.Errorf("protein_threshold %d: %w", c.ProteinThreshold, ErrInvalidThreshold)
	}
	if c.PeptideThreshold <= 0 {
		return fmt.Errorf("peptide_threshold %d: %w", c.PeptideThreshold, ErrInvalidThreshold)
	}
	if c.ExactTimeout < 0 {
		return fmt.Errorf("exact_timeout %v is negative", c.ExactTimeout)
	}
	if c.Dataset == "" {
		return errors.New("dataset label is empty")
	}
	return nil
}

// SolverOptions returns the parsimony options for these settings.
func (c Config) SolverOptions() parsimony.Options {
	return parsimony.Options{
		ProteinThreshold: c.ProteinThreshold,
		PeptideThreshold: c.PeptideThreshold,
		ExactTimeout:     c.ExactTimeout,
	}
}

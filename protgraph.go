// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/524D/protgraph/internal/config"
	"github.com/524D/protgraph/internal/covercache"
	"github.com/524D/protgraph/internal/mzidentml"
	"github.com/524D/protgraph/internal/parsimony"
)

// Program name and version, written to the JSON result
const progName = "protgraph"

var progVersion = `Unknown`

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Output files of the infer command
const (
	resultFile          = "result.json"
	groupsFile          = "protein_groups.tsv"
	peptideMatchesFile  = "peptide_matches.tsv"
	peptideProteinsFile = "peptide_proteins.tsv"
	optimizationFile    = "optimization.txt"
)

// Default PSM score filter for mzIdentML input
const defaultScoreFilter = "MS:1002257(0.0:1e-2)MS:1001330(0.0:1e-2)MS:1001159(0.0:1e-2)MS:1002466(0.99:)"

var ErrRangeSpec = errors.New("invalid range specified")

// Options shared by all commands
type globalParams struct {
	configPath string
	verbose    bool
	quiet      bool
	verbosity  int  // Verbosity of progress messages (infoDefault...)
	debug      bool // Enable debug logging (environment variable PROTGRAPH_DEBUG=1)

	// Solver settings from the command line, applied when named in setFlags
	proteinThreshold int
	peptideThreshold int
	exactTimeout     time.Duration
	setFlags         map[string]bool
}

// Flags that override the configuration
const (
	flagProteinThreshold = "protein-threshold"
	flagPeptideThreshold = "peptide-threshold"
	flagExactTimeout     = "exact-timeout"
)

func (g *globalParams) resolve() {
	g.verbosity = infoDefault
	if g.verbose {
		g.verbosity = infoVerbose
	}
	if g.quiet {
		g.verbosity = infoSilent
	}
	g.debug = os.Getenv("PROTGRAPH_DEBUG") == `1`
}

// progress prints a progress message on stderr in verbose mode
func (g *globalParams) progress(format string, args ...any) {
	if g.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// newLogger returns the logger handed to the library packages. Its level
// follows the verbosity.
func newLogger(g *globalParams) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case g.debug:
		level = slog.LevelDebug
	case g.verbosity == infoSilent:
		level = slog.LevelError
	case g.verbosity == infoDefault:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file and environment, and applies the
// dataset label and solver flags given on the command line.
func loadConfig(g *globalParams, dataset string) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if dataset != "" {
		cfg.Dataset = dataset
	}
	if g.setFlags[flagProteinThreshold] {
		cfg.ProteinThreshold = g.proteinThreshold
	}
	if g.setFlags[flagPeptideThreshold] {
		cfg.PeptideThreshold = g.peptideThreshold
	}
	if g.setFlags[flagExactTimeout] {
		cfg.ExactTimeout = g.exactTimeout
	}
	return cfg, cfg.Validate()
}

// openCache opens the cover cache configured in cfg. A nil cache is returned
// when caching is off.
func openCache(cfg config.Config, logger *slog.Logger) (*covercache.Cache, error) {
	if cfg.CacheDir == "" {
		return nil, nil
	}
	return covercache.Open(covercache.Config{Path: cfg.CacheDir, Logger: logger})
}

// solverOptions returns the solver options with the optional cache attached.
func solverOptions(cfg config.Config, cache *covercache.Cache, logger *slog.Logger) parsimony.Options {
	opts := cfg.SolverOptions()
	opts.Logger = logger
	if cache != nil {
		opts.Cache = cache
	}
	return opts
}

var float64RangeRe = regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	m := float64RangeRe.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

type scoreRange struct {
	minScore float64
	maxScore float64
	priority int // lower is preferred
}

// scoreFilter maps CV accessions or names to accepted score ranges
type scoreFilter map[string]scoreRange

var scoreFilterRe = regexp.MustCompile(`([^\(]+)\(([^\)]*)\)`)

func parseScoreFilter(scoreFilterStr string) (scoreFilter, error) {
	scoreFilt := make(scoreFilter)

	matchedStringsList := scoreFilterRe.FindAllStringSubmatch(scoreFilterStr, -1)
	for n, matchedStrings := range matchedStringsList {
		scoreName := matchedStrings[1]
		scoreRangeStr := matchedStrings[2]
		if _, ok := scoreFilt[scoreName]; ok {
			return nil, errors.New(scoreName + ` defined more than once.`)
		}
		minScore, maxScore, err := parseFloat64Range(scoreRangeStr,
			-math.MaxFloat64, math.MaxFloat64)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", scoreName, err)
		}
		scoreFilt[scoreName] = scoreRange{minScore: minScore, maxScore: maxScore, priority: n}
	}
	if len(scoreFilt) == 0 {
		return nil, fmt.Errorf("no score in filter %q: %w", scoreFilterStr, ErrRangeSpec)
	}
	return scoreFilt, nil
}

// accept checks the PSM scores in cvs against the filter. The score term
// with the highest priority decides. found is false when no term of the
// filter is present.
func (f scoreFilter) accept(cvs []mzidentml.CVParam) (score float64, ok bool, found bool, err error) {
	curPrio := math.MaxInt32
	for _, cv := range cvs {
		// Check if the CV accession number or CV name matches scorefilter
		filt, match := f[cv.Accession]
		if !match {
			filt, match = f[cv.Name]
		}
		if !match || filt.priority >= curPrio {
			continue
		}
		s, err := strconv.ParseFloat(cv.Value, 64)
		if err != nil {
			return 0, false, true, fmt.Errorf("invalid score value %q: %w", cv.Value, err)
		}
		curPrio = filt.priority
		score = s
		ok = s >= filt.minScore && s <= filt.maxScore
		found = true
	}
	return score, ok, found, nil
}

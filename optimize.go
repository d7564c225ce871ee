package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/524D/protgraph/internal/parsimony"
	"github.com/524D/protgraph/internal/pepfile"
	"github.com/524D/protgraph/internal/protein"
	"github.com/524D/protgraph/internal/report"
)

// Parameters of the optimize command
type optimizeParams struct {
	*globalParams
	files     []string // score lists, one per dataset
	minScore  float64
	accession bool   // strip isoform suffixes from the output
	output    string // cover list, stdout if empty
	peptides  string // peptides of the cover proteins, not written if empty
	jobs      int
}

// scoreProtein is a protein of the union of score lists
type scoreProtein struct {
	accession string
	sequences []string // in order of first appearance
	seen      map[string]bool
}

// scoreUnion merges score lists of several datasets
type scoreUnion struct {
	proteins  []*scoreProtein
	byAcc     map[string]*scoreProtein
	bestScore map[string]float64 // per peptide sequence
	records   int
}

func newScoreUnion() *scoreUnion {
	return &scoreUnion{
		byAcc:     make(map[string]*scoreProtein),
		bestScore: make(map[string]float64),
	}
}

func (u *scoreUnion) add(recs []pepfile.ScoreRecord) {
	for _, r := range recs {
		p, ok := u.byAcc[r.Accession]
		if !ok {
			p = &scoreProtein{accession: r.Accession, seen: make(map[string]bool)}
			u.byAcc[r.Accession] = p
			u.proteins = append(u.proteins, p)
		}
		if best, ok := u.bestScore[r.Sequence]; !ok || r.Score > best {
			u.bestScore[r.Sequence] = r.Score
		}
		if !p.seen[r.Sequence] {
			p.seen[r.Sequence] = true
			p.sequences = append(p.sequences, r.Sequence)
			u.records++
		}
	}
}

// sets returns the cover candidates: one per protein, keyed by the
// canonical forms of its peptides.
func (u *scoreUnion) sets() []parsimony.Set {
	sets := make([]parsimony.Set, len(u.proteins))
	for i, p := range u.proteins {
		keys := make([]string, len(p.sequences))
		for j, s := range p.sequences {
			keys[j] = protein.Canonical(s)
		}
		sets[i] = parsimony.Set{ID: p.accession, Keys: keys}
	}
	return sets
}

// coverList returns the accessions of the cover, optionally reduced to base
// accessions without repeats.
func coverList(cover []string, baseOnly bool) []string {
	if !baseOnly {
		return cover
	}
	var list []string
	seen := make(map[string]bool)
	for _, acc := range cover {
		base, _ := protein.BaseAccession(acc)
		if !seen[base] {
			seen[base] = true
			list = append(list, base)
		}
	}
	return list
}

// peptideList returns accession, sequence and best score of every peptide
// of the cover proteins.
func (u *scoreUnion) peptideList(cover []string, baseOnly bool) []string {
	var lines []string
	for _, acc := range cover {
		name := acc
		if baseOnly {
			name, _ = protein.BaseAccession(acc)
		}
		for _, s := range u.byAcc[acc].sequences {
			score := strconv.FormatFloat(u.bestScore[s], 'g', -1, 64)
			lines = append(lines, name+"\t"+s+"\t"+score)
		}
	}
	return lines
}

// readScoreLists reads the score lists concurrently.
func readScoreLists(ctx context.Context, files []string, minScore float64, jobs int) ([][]pepfile.ScoreRecord, error) {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	lists := make([][]pepfile.ScoreRecord, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			recs, err := pepfile.ReadScoreListFile(path, minScore)
			if err != nil {
				return err
			}
			lists[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

func runOptimize(ctx context.Context, par *optimizeParams, stdout io.Writer) error {
	cfg, err := loadConfig(par.globalParams, "")
	if err != nil {
		return err
	}
	logger := newLogger(par.globalParams)
	t := time.Now()

	lists, err := readScoreLists(ctx, par.files, par.minScore, par.jobs)
	if err != nil {
		return err
	}
	u := newScoreUnion()
	for _, recs := range lists {
		u.add(recs)
	}
	par.progress("Read %d score lists, %d proteins, %d peptides (%s)\n",
		len(lists), len(u.proteins), len(u.bestScore), time.Since(t))

	cache, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}
	p := parsimony.NewProblem(u.sets())
	res, err := parsimony.Solve(ctx, p, u.records, solverOptions(cfg, cache, logger))
	if err != nil {
		return err
	}
	cover := res.IDs(p)
	logger.Info("minimal cover", "proteins", len(u.proteins), "cover", len(cover),
		"algorithm", res.Algorithm, "fallback", res.FellBack, "cached", res.Cached)

	list := coverList(cover, par.accession)
	if par.output == "" {
		if err := report.WriteList(stdout, list); err != nil {
			return err
		}
	} else if err := writeFile(par.output, func(w io.Writer) error { return report.WriteList(w, list) }); err != nil {
		return err
	}
	if par.peptides != "" {
		lines := u.peptideList(cover, par.accession)
		if err := writeFile(par.peptides, func(w io.Writer) error { return report.WriteList(w, lines) }); err != nil {
			return fmt.Errorf("write peptides: %w", err)
		}
	}
	par.progress("Optimization done, %d of %d proteins (%s)\n", len(list), len(u.proteins), time.Since(t))
	return nil
}

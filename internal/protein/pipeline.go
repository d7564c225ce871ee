package protein

import (
	"context"
	"fmt"

	"github.com/524D/protgraph/internal/parsimony"
)

// Stats summarizes an inference run.
type Stats struct {
	Peptides   int
	Unmatched  int
	Candidates int
	Evidence   int
	Cover      int
	Proteins   int
	Isoforms   int
	Leading    int
	Groups     int
}

// Result is the outcome of Infer.
type Result struct {
	// Cover holds the accessions of the minimal cover in solver order.
	Cover  []string
	Solver parsimony.Result
	Stats  Stats
}

// Infer runs protein inference on a dataset whose peptides and matches were
// added: minimal cover, isoform consolidation, classification, grouping
// and peptide uniqueness, in that order.
func Infer(ctx context.Context, d *Dataset, opts parsimony.Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = d.logger
	}
	p := parsimony.NewProblem(d.ParsimonySets())
	sr, err := parsimony.Solve(ctx, p, d.NumEvidence(), opts)
	if err != nil {
		return nil, fmt.Errorf("minimal cover of dataset %s: %w", d.Name(), err)
	}
	cover := sr.IDs(p)
	d.logger.Debug("minimal cover", "dataset", d.Name(), "algorithm", sr.Algorithm,
		"size", len(cover), "cached", sr.Cached, "fallback", sr.FellBack, "elapsed", sr.Elapsed)

	d.Consolidate(cover)
	d.Classify()
	d.BuildGroups(cover)
	d.MarkUniquePeptides()

	res := &Result{Cover: cover, Solver: sr, Stats: d.Stats()}
	res.Stats.Cover = len(cover)
	return res, nil
}

// Stats counts the entities of the dataset. Cover is left zero.
func (d *Dataset) Stats() Stats {
	st := Stats{
		Peptides:   len(d.Peptides),
		Unmatched:  len(d.Unmatched()),
		Candidates: len(d.Candidates),
		Evidence:   d.NumEvidence(),
		Proteins:   len(d.Proteins),
		Isoforms:   len(d.Isoforms),
		Groups:     len(d.Groups),
	}
	for i := range d.Proteins {
		if d.Proteins[i].Leading {
			st.Leading++
		}
	}
	return st
}

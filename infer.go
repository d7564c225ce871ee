// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/524D/protgraph/internal/fasta"
	"github.com/524D/protgraph/internal/metrics"
	"github.com/524D/protgraph/internal/mzidentml"
	"github.com/524D/protgraph/internal/pepfile"
	"github.com/524D/protgraph/internal/peptidematch"
	"github.com/524D/protgraph/internal/protein"
	"github.com/524D/protgraph/internal/report"
)

// Parameters of the infer command
type inferParams struct {
	*globalParams
	dataset     string
	peptides    string // peptide result TSV
	mzid        string // mzIdentML file, alternative to peptides
	fasta       string
	matches     string // precomputed PeptideMatch result
	workDir     string // PeptideMatch work directory
	outDir      string
	scoreFilter string
	metricsFile string
}

// inferInput holds the loaded input files
type inferInput struct {
	peptides []pepfile.Peptide
	matches  []protein.Match // from mzIdentML
	seqs     fasta.Index
}

func (par *inferParams) check() error {
	switch {
	case par.peptides == "" && par.mzid == "":
		return errors.New("one of --peptides or --mzid is required")
	case par.peptides != "" && par.mzid != "":
		return errors.New("--peptides and --mzid are mutually exclusive")
	case par.peptides != "" && par.matches == "" && par.fasta == "":
		return errors.New("--fasta is required to match peptides")
	}
	if par.outDir == "" {
		par.outDir = "."
	}
	if par.workDir == "" {
		par.workDir = par.outDir
	}
	return nil
}

func runInfer(ctx context.Context, par *inferParams) error {
	if err := par.check(); err != nil {
		return err
	}
	cfg, err := loadConfig(par.globalParams, par.dataset)
	if err != nil {
		return err
	}
	logger := newLogger(par.globalParams).With("dataset", cfg.Dataset)
	t := time.Now()

	in, err := loadInferInput(par, logger)
	if err != nil {
		return err
	}
	par.progress("Read %d peptides (%s)\n", len(in.peptides), time.Since(t))

	d := protein.NewDataset(protein.NewIDs(cfg.Dataset), logger)
	seqs := make([]string, 0, len(in.peptides))
	for _, p := range in.peptides {
		d.AddPeptide(p.Sequence, p.Score, p.FDR)
		seqs = append(seqs, p.Sequence)
	}

	matches := in.matches
	switch {
	case par.mzid != "":
		// evidence came with the identifications
	case par.matches != "":
		if matches, err = peptidematch.ReadResultFile(par.matches); err != nil {
			return err
		}
	default:
		runner := peptidematch.Runner{
			JavaBin: cfg.JavaBin,
			Jar:     cfg.PeptideMatchJar,
			WorkDir: par.workDir,
			Logger:  logger,
		}
		if matches, err = runner.Match(ctx, par.fasta, seqs); err != nil {
			return err
		}
	}
	var lookup protein.SequenceLookup
	if in.seqs != nil {
		lookup = in.seqs
	}
	st := d.AddMatches(matches, lookup)
	logger.Info("evidence graph", "records", st.Records, "added", st.Added,
		"duplicates", st.Duplicates, "rejected", st.Rejected)

	cache, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}
	res, err := protein.Infer(ctx, d, solverOptions(cfg, cache, logger))
	if err != nil {
		return err
	}
	par.progress("Inference done, %d proteins in %d groups (%s)\n",
		res.Stats.Proteins, res.Stats.Groups, time.Since(t))
	logger.Info("inference", "peptides", res.Stats.Peptides, "unmatched", res.Stats.Unmatched,
		"matched_proteins", res.Stats.Candidates, "cover", res.Stats.Cover,
		"proteins", res.Stats.Proteins, "isoforms", res.Stats.Isoforms,
		"leading", res.Stats.Leading, "groups", res.Stats.Groups)

	if err := writeInferOutput(par.outDir, d, res); err != nil {
		return err
	}
	if par.metricsFile != "" {
		m := metrics.New()
		m.ObserveBuild(st)
		m.ObserveSolve(cfg.Dataset, res.Solver)
		m.ObserveStats(cfg.Dataset, res.Stats)
		if err := m.WriteTextfile(par.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// loadInferInput reads the peptide input and the FASTA file concurrently.
func loadInferInput(par *inferParams, logger *slog.Logger) (inferInput, error) {
	var in inferInput
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if par.mzid != "" {
			in.peptides, in.matches, err = readMzIdentML(par.mzid, par.scoreFilter, logger)
			return err
		}
		in.peptides, err = pepfile.ReadPeptidesFile(par.peptides)
		return err
	})
	if par.fasta != "" {
		g.Go(func() error {
			recs, err := fasta.ReadFile(par.fasta)
			if err != nil {
				return err
			}
			in.seqs = fasta.NewIndex(recs)
			return nil
		})
	}
	return in, g.Wait()
}

// readMzIdentML returns the peptides of the identifications that pass the
// score filter, and their peptide evidence as match records. Decoy evidence
// and records with unknown references are skipped.
func readMzIdentML(path, filterStr string, logger *slog.Logger) ([]pepfile.Peptide, []protein.Match, error) {
	filt, err := parseScoreFilter(filterStr)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	mzIdentML, err := mzidentml.Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	var peps []pepfile.Peptide
	accepted := make(map[string]bool)
	noScore := 0
	for i := 0; i < mzIdentML.NumIdents(); i++ {
		ident, err := mzIdentML.Ident(i)
		if errors.Is(err, mzidentml.ErrUnknownReference) {
			logger.Warn("skipping identification", "index", i, "error", err)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		score, ok, found, err := filt.accept(ident.Cv)
		if err != nil {
			return nil, nil, fmt.Errorf("identification %s: %w", ident.PepID, err)
		}
		if !found {
			noScore++
		}
		if !ok {
			continue
		}
		peps = append(peps, pepfile.Peptide{Sequence: ident.PepSeq, Score: score})
		accepted[ident.PepSeq] = true
	}
	if len(peps) == 0 {
		logger.Warn("no identification passed the score filter. Is the specified scorefilter applicable for this file?",
			"identifications", mzIdentML.NumIdents(), "without_score", noScore)
	}

	var matches []protein.Match
	for i := 0; i < mzIdentML.NumEvidence(); i++ {
		ev, err := mzIdentML.Evidence(i)
		if errors.Is(err, mzidentml.ErrUnknownReference) {
			logger.Warn("skipping peptide evidence", "index", i, "error", err)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if ev.IsDecoy || !accepted[ev.PepSeq] {
			continue
		}
		matches = append(matches, protein.Match{
			Sequence:  ev.PepSeq,
			Accession: ev.Accession,
			Start:     ev.Start,
			End:       ev.End,
		})
	}
	return peps, matches, nil
}

func writeInferOutput(dir string, d *protein.Dataset, res *protein.Result) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	doc := report.Build(d, res, progName, progVersion)
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{resultFile, func(w io.Writer) error { return report.WriteJSON(w, doc) }},
		{groupsFile, func(w io.Writer) error { return report.WriteGroups(w, d) }},
		{peptideMatchesFile, func(w io.Writer) error { return report.WritePeptideMatches(w, d) }},
		{peptideProteinsFile, func(w io.Writer) error { return report.WritePeptideProteins(w, d) }},
		{optimizationFile, func(w io.Writer) error { return report.WriteList(w, res.Cover) }},
	}
	for _, o := range outputs {
		if err := writeFile(filepath.Join(dir, o.name), o.write); err != nil {
			return err
		}
	}
	return nil
}

// writeFile creates path and writes it with write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

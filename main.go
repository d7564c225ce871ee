// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/524D/protgraph/internal/parsimony"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("%s: %v", progName, err)
	}
}

func rootCmd() *cobra.Command {
	var g globalParams

	cmd := &cobra.Command{
		Use:   progName,
		Short: "Protein inference from peptide identifications",
		Long: `This program infers the proteins present in a sample from identified
peptides. It computes the minimal set of proteins that explains all peptides,
merges isoforms into their base protein, classifies the proteins as leading,
anchor, same-set or subset proteins, and groups them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.resolve()
			g.setFlags = make(map[string]bool)
			for _, name := range []string{flagProteinThreshold, flagPeptideThreshold, flagExactTimeout} {
				g.setFlags[name] = cmd.Flags().Changed(name)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML configuration `file`")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Print more verbose progress information")
	cmd.PersistentFlags().BoolVar(&g.quiet, "quiet", false, "Don't print any output except for errors")

	cmd.AddCommand(inferCmd(&g), optimizeCmd(&g), versionCmd())
	return cmd
}

func inferCmd(g *globalParams) *cobra.Command {
	par := inferParams{globalParams: g}
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer proteins and protein groups of one dataset",
		Long: `Infer proteins and protein groups of one dataset.

Peptides are read from a peptide result table (--peptides) or from the
identifications in an mzIdentML file (--mzid). Peptides from a table are
matched to the proteins in the FASTA file with PeptideMatch, unless a
precomputed PeptideMatch result is given with --matches.

The output directory receives ` + resultFile + `, ` + groupsFile + `,
` + peptideMatchesFile + `, ` + peptideProteinsFile + ` and ` + optimizationFile + `.

ENVIRONMENT VARIABLES:
  PROTGRAPH_PROTEIN_THRESHOLD, PROTGRAPH_PEPTIDE_THRESHOLD: above these numbers
      of matched proteins or match records the heuristic solver is used.
  PROTGRAPH_EXACT_TIMEOUT: time limit of the exact solver (default 1m, 0 for none).
The --protein-threshold, --peptide-threshold and --exact-timeout flags
override the configuration file and the environment.
  PROTGRAPH_CACHE_DIR: directory of the cover cache.
  JAVA_BIN, PEPTIDEMATCH_JAR: how PeptideMatch is started.
  PROTGRAPH_DEBUG=1: debug logging.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd.Context(), &par)
		},
	}
	f := cmd.Flags()
	f.StringVar(&par.dataset, "dataset", "", "dataset `label` used in identifiers (default from configuration)")
	f.StringVar(&par.peptides, "peptides", "", "peptide result table `file`")
	f.StringVar(&par.mzid, "mzid", "", "mzIdentML `file`")
	f.StringVar(&par.fasta, "fasta", "", "protein database `file` (FASTA, optionally gzipped)")
	f.StringVar(&par.matches, "matches", "", "precomputed PeptideMatch result `file`")
	f.StringVar(&par.workDir, "workdir", "", "PeptideMatch work `directory` (default output directory)")
	f.StringVarP(&par.outDir, "output", "o", ".", "output `directory`")
	f.StringVar(&par.scoreFilter, "scorefilter", defaultScoreFilter,
		`filter for PSM scores to accept (mzIdentML input). Format:
<CVterm1|scorename1>([<minscore1>]:[<maxscore1>])...
When multiple score names/CV terms are specified, the first one on the list
that matches a score in the input file will be used.`)
	f.StringVar(&par.metricsFile, "metrics", "", "write run metrics to this `file` (Prometheus text format)")
	addSolverFlags(cmd, g)
	return cmd
}

func optimizeCmd(g *globalParams) *cobra.Command {
	par := optimizeParams{globalParams: g}
	cmd := &cobra.Command{
		Use:   "optimize <scorelist>...",
		Short: "Compute the minimal protein list of one or more datasets",
		Long: `Compute the minimal list of proteins that explains the peptides of one or
more datasets. Each score list holds lines of dataset, accession, peptide
sequence and score, separated by tabs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			par.files = args
			return runOptimize(cmd.Context(), &par, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.Float64Var(&par.minScore, "min-score", 0, "minimum peptide score")
	f.BoolVar(&par.accession, "accession", false, "show only accessions (remove isoform)")
	f.StringVarP(&par.output, "output", "o", "", "output `file` (default stdout)")
	f.StringVar(&par.peptides, "peptides", "", "write accession, peptide and score of the listed proteins to `file`")
	f.IntVarP(&par.jobs, "jobs", "j", 0, "number of score lists read in parallel (default number of CPUs)")
	addSolverFlags(cmd, g)
	return cmd
}

// addSolverFlags adds the flags that override the solver configuration.
func addSolverFlags(cmd *cobra.Command, g *globalParams) {
	f := cmd.Flags()
	f.IntVar(&g.proteinThreshold, flagProteinThreshold, parsimony.DefaultProteinThreshold,
		"use the heuristic solver above this number of matched proteins")
	f.IntVar(&g.peptideThreshold, flagPeptideThreshold, parsimony.DefaultPeptideThreshold,
		"use the heuristic solver above this number of match records")
	f.DurationVar(&g.exactTimeout, flagExactTimeout, parsimony.DefaultExactTimeout,
		"time limit of the exact solver, 0 for none")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show software version",
		Run: func(cmd *cobra.Command, args []string) {
			if progVersion == `Unknown` {
				progVersion = `Unknown
Please build this program with -ldflags "-X main.progVersion=<version>" so that the version is shown here.`
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", progName, progVersion)
		},
	}
}

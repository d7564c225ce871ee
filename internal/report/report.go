// Package report writes inference results: a JSON document holding the
// whole result and tab separated tables for groups, peptide matches and the
// peptide-protein relation.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/524D/protgraph/internal/protein"
)

// FormatVersion is the version of the JSON document layout.
const FormatVersion = "1.0"

// Document is the JSON result of one dataset.
type Document struct {
	FormatVersion string
	Program       string
	Version       string
	Dataset       string
	Algorithm     string
	FellBack      bool          `json:",omitempty"`
	Cached        bool          `json:",omitempty"`
	SolveTime     time.Duration // nanoseconds
	Cover         []string
	Stats         protein.Stats
	Proteins      []ProteinDoc
	Groups        []GroupDoc
	Peptides      []PeptideDoc
}

// ProteinDoc is a consolidated protein.
type ProteinDoc struct {
	ID              string
	Accession       string
	Title           string
	Synthesized     bool `json:",omitempty"`
	InOptimization  bool
	Leading         bool
	Anchor          bool
	Same            bool
	Subset          bool
	LeadingProteins []string `json:",omitempty"`
	Group           string
	Evidence        []EvidenceDoc `json:",omitempty"`
	Isoforms        []IsoformDoc  `json:",omitempty"`
}

// IsoformDoc is an isoform of a protein.
type IsoformDoc struct {
	ID             string
	Accession      string
	InOptimization bool
	Evidence       []EvidenceDoc `json:",omitempty"`
}

// EvidenceDoc is a peptide match.
type EvidenceDoc struct {
	Peptide       string
	Start         int
	End           int
	Hit           string
	LeqIPositions string `json:",omitempty"`
	LeqI          bool   `json:",omitempty"`
}

// GroupDoc is a protein group.
type GroupDoc struct {
	ID       string
	Proteins []string
}

// PeptideDoc is an observed peptide.
type PeptideDoc struct {
	ID                    string
	Sequence              string
	Score                 float64
	FDR                   float64
	Matched               bool
	Unique                bool
	UniqueAtEvidenceLevel bool
	Indistinguishable     []string `json:",omitempty"`
}

func evidenceDocs(d *protein.Dataset, evs []protein.Evidence) []EvidenceDoc {
	if len(evs) == 0 {
		return nil
	}
	docs := make([]EvidenceDoc, len(evs))
	for i, ev := range evs {
		docs[i] = EvidenceDoc{
			Peptide:       d.Peptides[ev.Peptide].ID,
			Start:         ev.Start,
			End:           ev.End,
			Hit:           ev.Hit,
			LeqIPositions: ev.LeqIPositions,
			LeqI:          ev.LeqI,
		}
	}
	return docs
}

// Build assembles the document of an inferred dataset.
func Build(d *protein.Dataset, res *protein.Result, program, version string) Document {
	doc := Document{
		FormatVersion: FormatVersion,
		Program:       program,
		Version:       version,
		Dataset:       d.Name(),
		Algorithm:     res.Solver.Algorithm.String(),
		FellBack:      res.Solver.FellBack,
		Cached:        res.Solver.Cached,
		SolveTime:     res.Solver.Elapsed,
		Cover:         res.Cover,
		Stats:         res.Stats,
	}
	for i := range d.Proteins {
		p := &d.Proteins[i]
		pd := ProteinDoc{
			ID:             p.ID,
			Accession:      p.Accession,
			Title:          p.Title,
			Synthesized:    p.Synthesized,
			InOptimization: p.InOptimization,
			Leading:        p.Leading,
			Anchor:         p.Anchor,
			Same:           p.Same,
			Subset:         p.Subset,
			Evidence:       evidenceDocs(d, p.Evidence),
		}
		for _, l := range p.LeadingProteins {
			pd.LeadingProteins = append(pd.LeadingProteins, d.Proteins[l].ID)
		}
		if p.Group != protein.NoGroup {
			pd.Group = d.Groups[p.Group].ID
		}
		for _, iid := range p.Isoforms {
			iso := &d.Isoforms[iid]
			pd.Isoforms = append(pd.Isoforms, IsoformDoc{
				ID:             iso.ID,
				Accession:      iso.Accession,
				InOptimization: iso.InOptimization,
				Evidence:       evidenceDocs(d, iso.Evidence),
			})
		}
		doc.Proteins = append(doc.Proteins, pd)
	}
	for _, g := range d.Groups {
		gd := GroupDoc{ID: g.ID}
		for _, p := range g.Proteins {
			gd.Proteins = append(gd.Proteins, d.Proteins[p].ID)
		}
		doc.Groups = append(doc.Groups, gd)
	}
	for i := range d.Peptides {
		p := &d.Peptides[i]
		pd := PeptideDoc{
			ID:                    p.ID,
			Sequence:              p.Sequence,
			Score:                 p.Score,
			FDR:                   p.FDR,
			Matched:               p.Matched,
			Unique:                p.Unique,
			UniqueAtEvidenceLevel: p.UniqueAtEvidenceLevel,
		}
		for _, o := range d.Indistinguishable(protein.PeptideID(i)) {
			pd.Indistinguishable = append(pd.Indistinguishable, d.Peptides[o].ID)
		}
		doc.Peptides = append(doc.Peptides, pd)
	}
	return doc
}

// WriteJSON writes doc indented.
func WriteJSON(w io.Writer, doc Document) error {
	e := json.NewEncoder(w)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	return e.Encode(doc)
}

// ReadJSON reads a document written by WriteJSON.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	err := json.NewDecoder(r).Decode(&doc)
	return doc, err
}

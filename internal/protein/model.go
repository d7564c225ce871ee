// Package protein holds the protein inference model of one dataset: the
// peptide/protein evidence graph, isoform consolidation, classification of
// proteins against the minimal cover and protein grouping.
//
// All entities live in slices owned by Dataset and refer to each other by
// index handles.
package protein

import "log/slog"

// Handles into the slices of a Dataset
type (
	PeptideID   int
	CandidateID int
	ProteinID   int
	IsoformID   int
	GroupID     int
)

// NoGroup marks a protein that is not assigned to a group yet.
const NoGroup GroupID = -1

// Peptide is an observed peptide sequence.
type Peptide struct {
	ID       string
	Sequence string
	Key      string // canonical sequence
	Score    float64
	FDR      float64

	Matched               bool
	Unique                bool
	UniqueAtEvidenceLevel bool
}

// Evidence is a match of one peptide to one protein or isoform. Positions
// are 1-based as reported by the matcher.
type Evidence struct {
	Peptide       PeptideID
	Start         int
	End           int
	Hit           string // protein substring that was hit
	LeqIPositions string // L=I positions reported by the matcher
	LeqI          bool   // the hit needed I/L substitution
}

// Candidate is a protein as matched, one per accession, isoforms included.
// Candidates are the parsimony input.
type Candidate struct {
	Accession string
	Title     string // accession field as read, e.g. sp|P12345|NAME_HUMAN
	Evidence  []Evidence
}

// Protein is a consolidated base protein.
type Protein struct {
	ID        string
	Accession string
	Title     string
	Evidence  []Evidence
	Isoforms  []IsoformID
	// Synthesized is set for a base protein that only exists because one
	// of its isoforms matched.
	Synthesized bool

	InOptimization  bool
	Leading         bool
	Anchor          bool
	Same            bool
	Subset          bool
	LeadingProteins []ProteinID

	Group GroupID
}

// Isoform is a sequence variant of a base protein.
type Isoform struct {
	ID             string
	Accession      string
	Protein        ProteinID
	Evidence       []Evidence
	InOptimization bool
}

// Group is a protein group.
type Group struct {
	ID       string
	Proteins []ProteinID
	keys     map[string]struct{}
}

type evidenceKey struct {
	candidate  CandidateID
	key        string
	start, end int
}

// Dataset holds the entities of one conversion run.
type Dataset struct {
	Peptides   []Peptide
	Candidates []Candidate
	Proteins   []Protein
	Isoforms   []Isoform
	Groups     []Group

	ids    *IDs
	logger *slog.Logger

	bySeq       map[string]PeptideID
	byKey       map[string][]PeptideID
	byAccession map[string]CandidateID
	seen        map[evidenceKey]struct{}
}

// NewDataset returns an empty dataset whose identifiers are generated by
// ids. A nil logger means slog.Default().
func NewDataset(ids *IDs, logger *slog.Logger) *Dataset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dataset{
		ids:         ids,
		logger:      logger,
		bySeq:       make(map[string]PeptideID),
		byKey:       make(map[string][]PeptideID),
		byAccession: make(map[string]CandidateID),
		seen:        make(map[evidenceKey]struct{}),
	}
}

// Name returns the dataset label.
func (d *Dataset) Name() string { return d.ids.Dataset() }

// EvidenceKeys returns the evidence-set of protein id: the distinct canonical
// keys of its own and its isoforms' evidence, in order of first appearance.
func (d *Dataset) EvidenceKeys(id ProteinID) []string {
	p := &d.Proteins[id]
	seen := make(map[string]struct{})
	var keys []string
	add := func(evs []Evidence) {
		for _, ev := range evs {
			k := d.Peptides[ev.Peptide].Key
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	add(p.Evidence)
	for _, iso := range p.Isoforms {
		add(d.Isoforms[iso].Evidence)
	}
	return keys
}

// Indistinguishable returns the other peptides that share the canonical key
// of peptide id.
func (d *Dataset) Indistinguishable(id PeptideID) []PeptideID {
	var others []PeptideID
	for _, o := range d.byKey[d.Peptides[id].Key] {
		if o != id {
			others = append(others, o)
		}
	}
	return others
}

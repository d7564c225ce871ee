package protein

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/524D/protgraph/internal/parsimony"
)

// Match is one raw peptide-to-protein match record. Positions are kept as
// read and validated when the record is added.
type Match struct {
	Sequence      string
	Accession     string
	Start         string
	End           string
	Hit           string // optional
	LeqIPositions string // optional
}

// SequenceLookup returns protein sequences by accession.
type SequenceLookup interface {
	Sequence(accession string) (string, bool)
}

// BuildStats counts the outcome of AddMatches.
type BuildStats struct {
	Records    int
	Added      int
	Duplicates int
	Rejected   int
}

var (
	errUnknownPeptide = errors.New("unknown peptide")
	errBadPosition    = errors.New("invalid position")
)

// Accession reduces a database accession field of the form db|ACC|NAME to
// ACC. Other values are returned unchanged.
func Accession(field string) string {
	parts := strings.Split(field, "|")
	if len(parts) > 1 {
		return parts[1]
	}
	return field
}

// AddPeptide adds an observed peptide. A sequence that was added before is
// merged: the higher score and the lower FDR are kept.
func (d *Dataset) AddPeptide(seq string, score, fdr float64) PeptideID {
	if id, ok := d.bySeq[seq]; ok {
		p := &d.Peptides[id]
		p.Score = max(p.Score, score)
		p.FDR = min(p.FDR, fdr)
		return id
	}
	id := PeptideID(len(d.Peptides))
	key := Canonical(seq)
	d.Peptides = append(d.Peptides, Peptide{
		ID:       d.ids.NextPeptide(),
		Sequence: seq,
		Key:      key,
		Score:    score,
		FDR:      fdr,
	})
	d.bySeq[seq] = id
	d.byKey[key] = append(d.byKey[key], id)
	return id
}

// AddMatches adds match records to the evidence graph. Bad records are
// logged and skipped. Records that repeat (protein, canonical key, start,
// end) are dropped; the first one wins. seqs may be nil.
func (d *Dataset) AddMatches(matches []Match, seqs SequenceLookup) BuildStats {
	var st BuildStats
	for i, m := range matches {
		st.Records++
		added, err := d.addMatch(m, seqs)
		switch {
		case err != nil:
			st.Rejected++
			d.logger.Warn("rejected match record", "record", i+1,
				"sequence", m.Sequence, "accession", m.Accession, "error", err)
		case added:
			st.Added++
		default:
			st.Duplicates++
		}
	}
	return st
}

func (d *Dataset) addMatch(m Match, seqs SequenceLookup) (bool, error) {
	pep, ok := d.resolve(m.Sequence)
	if !ok {
		return false, fmt.Errorf("%w %q", errUnknownPeptide, m.Sequence)
	}
	start, err := parsePosition(m.Start)
	if err != nil {
		return false, fmt.Errorf("start: %w", err)
	}
	end, err := parsePosition(m.End)
	if err != nil {
		return false, fmt.Errorf("end: %w", err)
	}
	acc := Accession(m.Accession)
	if acc == "" {
		return false, errors.New("empty accession")
	}

	key := d.Peptides[pep].Key
	for _, id := range d.byKey[key] {
		d.Peptides[id].Matched = true
	}

	cid, ok := d.byAccession[acc]
	if !ok {
		cid = CandidateID(len(d.Candidates))
		d.Candidates = append(d.Candidates, Candidate{Accession: acc, Title: m.Accession})
		d.byAccession[acc] = cid
	}
	ek := evidenceKey{cid, key, start, end}
	if _, dup := d.seen[ek]; dup {
		return false, nil
	}
	d.seen[ek] = struct{}{}

	seq := d.Peptides[pep].Sequence
	hit := m.Hit
	if hit == "" && seqs != nil {
		if prot, ok := seqs.Sequence(acc); ok {
			var err error
			if hit, err = sliceHit(prot, start, end); err != nil {
				d.logger.Warn("no hit sequence", "accession", acc, "start", start, "end", end, "error", err)
			}
		} else {
			d.logger.Debug("protein sequence not found", "accession", acc)
		}
	}
	if hit == "" {
		hit = seq
	}
	d.Candidates[cid].Evidence = append(d.Candidates[cid].Evidence, Evidence{
		Peptide:       pep,
		Start:         start,
		End:           end,
		Hit:           hit,
		LeqIPositions: m.LeqIPositions,
		LeqI:          hit != seq || m.LeqIPositions != "",
	})
	return true, nil
}

// resolve finds a peptide by exact sequence, then by canonical key.
func (d *Dataset) resolve(seq string) (PeptideID, bool) {
	if id, ok := d.bySeq[seq]; ok {
		return id, true
	}
	if ids := d.byKey[Canonical(seq)]; len(ids) > 0 {
		return ids[0], true
	}
	return 0, false
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w %q", errBadPosition, s)
	}
	return n, nil
}

// sliceHit returns residues start..end (1-based, inclusive) of prot, read
// backwards when start > end.
func sliceHit(prot string, start, end int) (string, error) {
	lo, hi := min(start, end), max(start, end)
	if hi > len(prot) {
		return "", fmt.Errorf("%w: %d beyond sequence length %d", errBadPosition, hi, len(prot))
	}
	hit := prot[lo-1 : hi]
	if start <= end {
		return hit, nil
	}
	b := []byte(hit)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

// Unmatched returns the peptides without any match.
func (d *Dataset) Unmatched() []PeptideID {
	var ids []PeptideID
	for i := range d.Peptides {
		if !d.Peptides[i].Matched {
			ids = append(ids, PeptideID(i))
		}
	}
	return ids
}

// NumEvidence returns the number of evidence records over all candidates.
func (d *Dataset) NumEvidence() int {
	n := 0
	for i := range d.Candidates {
		n += len(d.Candidates[i].Evidence)
	}
	return n
}

// ParsimonySets returns one cover candidate per matched accession, keyed by
// the canonical keys of its evidence.
func (d *Dataset) ParsimonySets() []parsimony.Set {
	sets := make([]parsimony.Set, len(d.Candidates))
	for i := range d.Candidates {
		c := &d.Candidates[i]
		keys := make([]string, len(c.Evidence))
		for j, ev := range c.Evidence {
			keys[j] = d.Peptides[ev.Peptide].Key
		}
		sets[i] = parsimony.Set{ID: c.Accession, Keys: keys}
	}
	return sets
}

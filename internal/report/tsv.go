package report

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/524D/protgraph/internal/protein"
)

type tsvWriter struct {
	bw  *bufio.Writer
	err error
}

func newTSVWriter(w io.Writer) *tsvWriter {
	return &tsvWriter{bw: bufio.NewWriter(w)}
}

func (t *tsvWriter) row(cols ...string) {
	if t.err != nil {
		return
	}
	if _, err := t.bw.WriteString(strings.Join(cols, "\t")); err != nil {
		t.err = err
		return
	}
	t.err = t.bw.WriteByte('\n')
}

func (t *tsvWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.bw.Flush()
}

// Column headers
var (
	GroupsHeader          = []string{"Group ID", "UniProt", "Protein ID", "Isoform", "Protein Type", "Leading Protein ID"}
	PeptideMatchesHeader  = []string{"Sequence (Search)", "Uniprot", "Isoform", "Start", "End", "MatchedLEqIPositions", "Sequence (Hit)"}
	PeptideProteinsHeader = []string{"Peptide ID", "Sequence", "Protein ID", "UniProt", "Isoform", "Begin", "End"}
)

// proteinTypes lists the classification labels of p.
func proteinTypes(p *protein.Protein) string {
	var types []string
	if p.Leading {
		types = append(types, "leading protein")
	}
	if p.Anchor {
		types = append(types, "anchor protein")
	}
	if p.Subset {
		types = append(types, "subset protein")
	}
	if p.Same {
		types = append(types, "shared protein")
	}
	return strings.Join(types, ", ")
}

// WriteGroups writes one row per protein, grouped.
func WriteGroups(w io.Writer, d *protein.Dataset) error {
	t := newTSVWriter(w)
	t.row(GroupsHeader...)
	for _, g := range d.Groups {
		for _, pid := range g.Proteins {
			p := &d.Proteins[pid]
			var isoforms, leading []string
			for _, iid := range p.Isoforms {
				isoforms = append(isoforms, d.Isoforms[iid].ID)
			}
			for _, l := range p.LeadingProteins {
				leading = append(leading, d.Proteins[l].ID)
			}
			t.row(g.ID, p.Accession, p.ID, strings.Join(isoforms, ", "), proteinTypes(p), strings.Join(leading, ", "))
		}
	}
	return t.flush()
}

// WritePeptideMatches writes every evidence record of proteins and their
// isoforms.
func WritePeptideMatches(w io.Writer, d *protein.Dataset) error {
	t := newTSVWriter(w)
	t.row(PeptideMatchesHeader...)
	write := func(acc, isoform string, evs []protein.Evidence) {
		for _, ev := range evs {
			t.row(d.Peptides[ev.Peptide].Sequence, acc, isoform,
				strconv.Itoa(ev.Start), strconv.Itoa(ev.End), ev.LeqIPositions, ev.Hit)
		}
	}
	for i := range d.Proteins {
		p := &d.Proteins[i]
		write(p.Accession, "FALSE", p.Evidence)
		for _, iid := range p.Isoforms {
			write(d.Isoforms[iid].Accession, "TRUE", d.Isoforms[iid].Evidence)
		}
	}
	return t.flush()
}

// WritePeptideProteins writes the peptide-protein relation sorted by
// peptide ID, then sequence.
func WritePeptideProteins(w io.Writer, d *protein.Dataset) error {
	var rows [][]string
	add := func(id, acc, isoform string, evs []protein.Evidence) {
		for _, ev := range evs {
			pep := &d.Peptides[ev.Peptide]
			rows = append(rows, []string{pep.ID, pep.Sequence, id, acc, isoform,
				strconv.Itoa(ev.Start), strconv.Itoa(ev.End)})
		}
	}
	for i := range d.Proteins {
		p := &d.Proteins[i]
		add(p.ID, p.Accession, "", p.Evidence)
		for _, iid := range p.Isoforms {
			iso := &d.Isoforms[iid]
			add(iso.ID, p.Accession, iso.ID, iso.Evidence)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})

	t := newTSVWriter(w)
	t.row(PeptideProteinsHeader...)
	for _, r := range rows {
		t.row(r...)
	}
	return t.flush()
}

// WriteList writes one entry per line.
func WriteList(w io.Writer, list []string) error {
	t := newTSVWriter(w)
	for _, s := range list {
		t.row(s)
	}
	return t.flush()
}

package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/524D/protgraph/internal/parsimony"
	"github.com/524D/protgraph/internal/protein"
)

// inferred returns a small inferred dataset: P1 and P2 share evidence, P1-2
// is an isoform of P1 and Q9 shares its evidence.
func inferred(t *testing.T) (*protein.Dataset, *protein.Result) {
	t.Helper()
	d := protein.NewDataset(protein.NewIDs("1_1"), nil)
	d.AddPeptide("PEPTIDE", 30, 0.01)
	d.AddPeptide("PEPTLDE", 20, 0.02)
	d.AddPeptide("AAK", 10, 0.05)
	st := d.AddMatches([]protein.Match{
		{Sequence: "PEPTIDE", Accession: "sp|P1|A_HUMAN", Start: "2", End: "8"},
		{Sequence: "PEPTIDE", Accession: "sp|P2|B_HUMAN", Start: "5", End: "11", Hit: "PEPTLDE"},
		{Sequence: "AAK", Accession: "sp|P1-2|A_HUMAN", Start: "1", End: "3"},
		{Sequence: "AAK", Accession: "sp|Q9|C_HUMAN", Start: "7", End: "9"},
	}, nil)
	if st.Rejected != 0 {
		t.Fatalf("Expected no rejected records, got: %+v", st)
	}
	res, err := protein.Infer(context.Background(), d, parsimony.Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return d, res
}

func TestBuildAndJSON(t *testing.T) {
	d, res := inferred(t)
	doc := Build(d, res, "protgraph", "test")
	if doc.FormatVersion != FormatVersion || doc.Dataset != "1_1" || doc.Algorithm != "exact" {
		t.Errorf("Unexpected document header: %+v", doc)
	}
	if diff := cmp.Diff([]string{"P1", "P1-2"}, doc.Cover); diff != "" {
		t.Errorf("Cover mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Proteins) != 3 || len(doc.Proteins[0].Isoforms) != 1 {
		t.Fatalf("Unexpected proteins: %+v", doc.Proteins)
	}
	p2 := doc.Proteins[1]
	if !p2.Subset || p2.Same || p2.Group != doc.Proteins[0].Group {
		t.Errorf("Expected P2 as subset in the group of P1, got: %+v", p2)
	}
	if diff := cmp.Diff([]string{"PRT1_1_P1"}, p2.LeadingProteins); diff != "" {
		t.Errorf("LeadingProteins mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"PEP1_1_2"}, doc.Peptides[0].Indistinguishable); diff != "" {
		t.Errorf("Indistinguishable mismatch (-want +got):\n%s", diff)
	}

	var b bytes.Buffer
	if err := WriteJSON(&b, doc); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(b.String(), "\n  \"FormatVersion\": \"1.0\"") {
		t.Errorf("Expected indented JSON, got:\n%s", b.String())
	}
	back, err := ReadJSON(&b)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(doc, back); diff != "" {
		t.Errorf("Document mismatch after reading back (-want +got):\n%s", diff)
	}
}

func TestWriteGroups(t *testing.T) {
	d, _ := inferred(t)
	var b bytes.Buffer
	if err := WriteGroups(&b, d); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := strings.Join([]string{
		"Group ID\tUniProt\tProtein ID\tIsoform\tProtein Type\tLeading Protein ID",
		"PG1_1_1\tP1\tPRT1_1_P1\tISO1_1_P1-2\tleading protein\t",
		"PG1_1_1\tP2\tPRT1_1_P2\t\tsubset protein\tPRT1_1_P1",
		"PG1_1_1\tQ9\tPRT1_1_Q9\t\tsubset protein\tPRT1_1_P1",
		"",
	}, "\n")
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Groups table mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePeptideMatches(t *testing.T) {
	d, _ := inferred(t)
	var b bytes.Buffer
	if err := WritePeptideMatches(&b, d); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := strings.Join([]string{
		"Sequence (Search)\tUniprot\tIsoform\tStart\tEnd\tMatchedLEqIPositions\tSequence (Hit)",
		"PEPTIDE\tP1\tFALSE\t2\t8\t\tPEPTIDE",
		"AAK\tP1-2\tTRUE\t1\t3\t\tAAK",
		"PEPTIDE\tP2\tFALSE\t5\t11\t\tPEPTLDE",
		"AAK\tQ9\tFALSE\t7\t9\t\tAAK",
		"",
	}, "\n")
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Peptide matches mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePeptideProteins(t *testing.T) {
	d, _ := inferred(t)
	var b bytes.Buffer
	if err := WritePeptideProteins(&b, d); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected header and 4 rows, got:\n%s", b.String())
	}
	if lines[1] != "PEP1_1_1\tPEPTIDE\tPRT1_1_P1\tP1\t\t2\t8" {
		t.Errorf("Unexpected first row: %q", lines[1])
	}
	if lines[3] != "PEP1_1_3\tAAK\tISO1_1_P1-2\tP1\tISO1_1_P1-2\t1\t3" {
		t.Errorf("Unexpected isoform row: %q", lines[3])
	}
}

func TestWriteList(t *testing.T) {
	var b bytes.Buffer
	if err := WriteList(&b, []string{"P1", "Q9"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if b.String() != "P1\nQ9\n" {
		t.Errorf("Unexpected list: %q", b.String())
	}
}

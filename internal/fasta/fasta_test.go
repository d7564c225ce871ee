package fasta

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/524D/protgraph/internal/protein"
)

const testFasta = `>sp|P12345|ALBU_HUMAN Serum albumin
MKWVTFISLL
FSSAYS

>sp|P12345-2|ALBU_HUMAN Isoform 2
MKWV
>plain
ACDE FGH
`

var _ protein.SequenceLookup = Index(nil)

func TestRead(t *testing.T) {
	recs, err := Read(strings.NewReader(testFasta))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := []Record{
		{Title: "sp|P12345|ALBU_HUMAN Serum albumin", Sequence: "MKWVTFISLLFSSAYS"},
		{Title: "sp|P12345-2|ALBU_HUMAN Isoform 2", Sequence: "MKWV"},
		{Title: "plain", Sequence: "ACDEFGH"},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
	var accs []string
	for _, r := range recs {
		accs = append(accs, r.Accession())
	}
	if diff := cmp.Diff([]string{"P12345", "P12345-2", "plain"}, accs); diff != "" {
		t.Errorf("Accessions mismatch (-want +got):\n%s", diff)
	}
}

func TestReadNoHeader(t *testing.T) {
	if _, err := Read(strings.NewReader("MKWV\n>x\nAA\n")); err == nil {
		t.Errorf("Expected error for sequence before header")
	}
}

func TestReadFileGzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "db.fasta")
	if err := os.WriteFile(plain, []byte(testFasta), 0644); err != nil {
		t.Fatal(err)
	}
	// gzip detected by magic number, without .gz suffix
	zipped := filepath.Join(dir, "db.fa")
	f, err := os.Create(zipped)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(testFasta)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	for _, path := range []string{plain, zipped} {
		recs, err := ReadFile(path)
		if err != nil {
			t.Fatalf("Expected no error for %s, got: %v", path, err)
		}
		idx := NewIndex(recs)
		if seq, ok := idx.Sequence("P12345-2"); !ok || seq != "MKWV" {
			t.Errorf("Expected MKWV for P12345-2 in %s, got: %q %v", path, seq, ok)
		}
		if _, ok := idx.Sequence("Q99999"); ok {
			t.Errorf("Expected unknown accession to be missing")
		}
	}
}

package protein

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/524D/protgraph/internal/parsimony"
)

func TestInfer(t *testing.T) {
	d := newTestDataset(t, []string{"P1", "P2", "P3", "P3-2"}, map[string][]string{
		"P1":   {"AAK", "BBK"},
		"P2":   {"BBK", "CCK"},
		"P3":   {"CCK", "DDK"},
		"P3-2": {"DDK"},
	})
	d.AddPeptide("NOMATCH", 0, 0)

	res, err := Infer(context.Background(), d, parsimony.Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff([]string{"P1", "P3"}, res.Cover); diff != "" {
		t.Errorf("Cover mismatch (-want +got):\n%s", diff)
	}
	if res.Solver.Algorithm != parsimony.Exact {
		t.Errorf("Expected the exact solver, got: %v", res.Solver.Algorithm)
	}
	want := Stats{
		Peptides:   5,
		Unmatched:  1,
		Candidates: 4,
		Evidence:   7,
		Cover:      2,
		Proteins:   3,
		Isoforms:   1,
		Leading:    2,
		Groups:     3,
	}
	if diff := cmp.Diff(want, res.Stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	p2 := d.Proteins[1]
	if p2.Leading || p2.Same || p2.Subset {
		t.Errorf("Expected P2 to be unclassified, got: %+v", p2)
	}
	if p2.Group == NoGroup {
		t.Errorf("Expected P2 to be grouped")
	}
	aak := d.Peptides[d.bySeq["AAK"]]
	if !aak.Unique || !aak.UniqueAtEvidenceLevel {
		t.Errorf("Expected AAK to be unique, got: %+v", aak)
	}
}

func TestInferEmpty(t *testing.T) {
	d := NewDataset(NewIDs("1_1"), nil)
	d.AddPeptide("NOMATCH", 0, 0)
	res, err := Infer(context.Background(), d, parsimony.Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Cover) != 0 || len(d.Proteins) != 0 || len(d.Groups) != 0 {
		t.Errorf("Expected empty result, got: %+v", res)
	}
}

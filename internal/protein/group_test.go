package protein

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func groupMembers(d *Dataset) map[string][]string {
	m := make(map[string][]string)
	for _, g := range d.Groups {
		for _, p := range g.Proteins {
			m[g.ID] = append(m[g.ID], d.Proteins[p].Accession)
		}
	}
	return m
}

func TestBuildGroups(t *testing.T) {
	d := newTestDataset(t, []string{"A", "A-2", "B", "C", "D", "E"}, map[string][]string{
		"A":   {"K1", "K2"},
		"A-2": {"K5"},
		"B":   {"K3"},
		"C":   {"K2", "K5"},
		"D":   {"K3"},
		"E":   {"K9"},
	})
	cover := []string{"A", "A-2", "B", "E"}
	d.Consolidate(cover)
	d.Classify()
	d.BuildGroups(cover)

	want := map[string][]string{
		"PG1_1_1": {"A", "C"},
		"PG1_1_2": {"B", "D"},
		"PG1_1_3": {"E"},
	}
	if diff := cmp.Diff(want, groupMembers(d)); diff != "" {
		t.Errorf("Group members mismatch (-want +got):\n%s", diff)
	}
	if d.groupKeys(0) != 3 {
		t.Errorf("Expected 3 keys in the first group, got: %d", d.groupKeys(0))
	}
}

func TestBuildGroupsNewGroupForUnexplained(t *testing.T) {
	d := newTestDataset(t, []string{"A", "B"}, map[string][]string{
		"A": {"K1"},
		"B": {"K1", "K2"},
	})
	// B is not explained by the cover's group evidence
	d.Consolidate([]string{"A"})
	d.BuildGroups([]string{"A"})
	if len(d.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got: %d", len(d.Groups))
	}
	if d.Proteins[1].Group != 1 || d.Groups[1].ID != "PG1_1_2" {
		t.Errorf("Expected B in a new group PG1_1_2, got group %d", d.Proteins[1].Group)
	}
}

func TestBuildGroupsPartition(t *testing.T) {
	d := newTestDataset(t, []string{"A", "B", "C", "D", "B-2"}, map[string][]string{
		"A":   {"K1", "K2"},
		"B":   {"K2", "K3"},
		"C":   {"K3"},
		"D":   {"K1", "K3"},
		"B-2": {"K4"},
	})
	cover := []string{"A", "B", "B-2"}
	d.Consolidate(cover)
	d.BuildGroups(cover)

	seen := make(map[ProteinID]int)
	for gi, g := range d.Groups {
		for _, p := range g.Proteins {
			seen[p]++
			if d.Proteins[p].Group != GroupID(gi) {
				t.Errorf("Protein %s points to group %d, member of %d", d.Proteins[p].Accession, d.Proteins[p].Group, gi)
			}
		}
	}
	for i := range d.Proteins {
		if seen[ProteinID(i)] != 1 {
			t.Errorf("Protein %s is in %d groups", d.Proteins[i].Accession, seen[ProteinID(i)])
		}
	}
}

// Package parsimony computes minimal protein covers: the smallest set of
// proteins whose peptide evidence jointly explains every observed peptide.
// This is the unweighted minimum set cover problem. Two solvers are
// available, an exact branch-and-bound (Exact) and the lazy greedy
// approximation (Heuristic); Solve picks one from the problem size.
package parsimony

import "sort"

// Set is a cover candidate: a protein accession and the canonical peptide
// keys supporting it.
type Set struct {
	ID   string
	Keys []string
}

// Problem is a set cover instance. Keys are interned to dense integers in
// order of first appearance.
type Problem struct {
	sets    []Set
	members [][]int // per set: sorted, distinct key indices
	keys    []string
	keyIdx  map[string]int
}

// NewProblem interns the keys of sets. Sets without keys stay addressable by
// index but are never selected.
func NewProblem(sets []Set) *Problem {
	p := &Problem{
		sets:    sets,
		members: make([][]int, len(sets)),
		keyIdx:  make(map[string]int),
	}
	for i, s := range sets {
		var m []int
		for _, k := range s.Keys {
			ki, ok := p.keyIdx[k]
			if !ok {
				ki = len(p.keys)
				p.keyIdx[k] = ki
				p.keys = append(p.keys, k)
			}
			m = append(m, ki)
		}
		sort.Ints(m)
		p.members[i] = dedupSorted(m)
	}
	return p
}

func dedupSorted(a []int) []int {
	if len(a) < 2 {
		return a
	}
	k := 1
	for i := 1; i < len(a); i++ {
		if a[i] != a[k-1] {
			a[k] = a[i]
			k++
		}
	}
	return a[:k]
}

// Len returns the number of candidate sets.
func (p *Problem) Len() int { return len(p.sets) }

// NumKeys returns the size of the universe.
func (p *Problem) NumKeys() int { return len(p.keys) }

// Set returns candidate i.
func (p *Problem) Set(i int) Set { return p.sets[i] }

// Universe returns all keys, in order of first appearance.
func (p *Problem) Universe() []string {
	u := make([]string, len(p.keys))
	copy(u, p.keys)
	return u
}

// Covers reports whether the sets with the given indices cover the universe.
func (p *Problem) Covers(cover []int) bool {
	seen := make([]bool, len(p.keys))
	n := 0
	for _, i := range cover {
		if i < 0 || i >= len(p.sets) {
			return false
		}
		for _, k := range p.members[i] {
			if !seen[k] {
				seen[k] = true
				n++
			}
		}
	}
	return n == len(p.keys)
}

// IDs maps set indices to set IDs.
func (p *Problem) IDs(cover []int) []string {
	ids := make([]string, len(cover))
	for j, i := range cover {
		ids[j] = p.sets[i].ID
	}
	return ids
}

// indices maps IDs back to set indices. It fails when an ID is unknown or
// not unique in the problem.
func (p *Problem) indices(ids []string) ([]int, bool) {
	byID := make(map[string]int, len(p.sets))
	for i, s := range p.sets {
		if _, dup := byID[s.ID]; dup {
			byID[s.ID] = -1
			continue
		}
		byID[s.ID] = i
	}
	cover := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok || i < 0 {
			return nil, false
		}
		cover = append(cover, i)
	}
	return cover, true
}

// before orders sets by ID, then by index. It is the deterministic
// tie-break shared by both solvers.
func (p *Problem) before(a, b int) bool {
	if p.sets[a].ID != p.sets[b].ID {
		return p.sets[a].ID < p.sets[b].ID
	}
	return a < b
}

package parsimony

import (
	"container/heap"
	"context"
)

// Greedy is the ln(n)-competitive greedy set cover approximation. It
// repeatedly selects the set covering the most still-uncovered keys; ties
// go to the smallest set ID.
//
// Gains are updated lazily: a heap entry is trusted only when it was pushed
// in the current generation (no selection happened since). Stale entries
// are recomputed when popped and pushed back.
type Greedy struct{}

type greedyEntry struct {
	gain int
	gen  int
	set  int
}

type greedyHeap struct {
	p       *Problem
	entries []greedyEntry
}

func (h *greedyHeap) Len() int { return len(h.entries) }

func (h *greedyHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.gain != b.gain {
		return a.gain > b.gain
	}
	// On equal gain pop stale entries first, so that the tie-break below
	// is only applied between up-to-date gains
	if a.gen != b.gen {
		return a.gen < b.gen
	}
	return h.p.before(a.set, b.set)
}

func (h *greedyHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *greedyHeap) Push(x any) { h.entries = append(h.entries, x.(greedyEntry)) }

func (h *greedyHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}

// Solve returns the selected set indices in selection order.
func (Greedy) Solve(ctx context.Context, p *Problem) ([]int, error) {
	if p.NumKeys() == 0 {
		return nil, nil
	}
	uncovered := make([]bool, p.NumKeys())
	for k := range uncovered {
		uncovered[k] = true
	}
	remaining := p.NumKeys()

	h := &greedyHeap{p: p, entries: make([]greedyEntry, 0, p.Len())}
	for i, m := range p.members {
		if len(m) > 0 {
			h.entries = append(h.entries, greedyEntry{gain: len(m), set: i})
		}
	}
	heap.Init(h)

	var cover []int
	gen := 0
	for steps := 1; remaining > 0 && h.Len() > 0; steps++ {
		if steps&4095 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		e := heap.Pop(h).(greedyEntry)
		gain := 0
		for _, k := range p.members[e.set] {
			if uncovered[k] {
				gain++
			}
		}
		if gain == 0 {
			continue
		}
		if e.gen != gen {
			e.gain = gain
			e.gen = gen
			heap.Push(h, e)
			continue
		}
		cover = append(cover, e.set)
		for _, k := range p.members[e.set] {
			uncovered[k] = false
		}
		remaining -= gain
		gen++
	}
	return cover, nil
}

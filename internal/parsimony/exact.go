package parsimony

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// DefaultLPCells is the largest LP relaxation (rows × columns) that
// BranchAndBound solves for a root lower bound.
const DefaultLPCells = 1 << 18

// BranchAndBound solves the 0/1 program
//
//	minimize   Σ x_j
//	subject to Σ_{j : k ∈ S_j} x_j ≥ 1   for every key k
//	           x_j ∈ {0, 1}
//
// to optimality. The instance is split into connected components, each
// reduced by forcing essential sets (sole owner of some key) and removing
// duplicate or dominated sets, then searched depth-first. The search
// branches on the uncovered key with the fewest remaining owners and
// prunes with the larger of two admissible bounds: uncovered keys divided
// by the best gain, and a packing of keys with pairwise disjoint owners.
// The LP relaxation (gonum simplex) tightens the bound at the root.
type BranchAndBound struct {
	// LPCells limits the LP relaxation size; 0 means DefaultLPCells and
	// a negative value disables it.
	LPCells int
	Logger  *slog.Logger
}

// Solve returns the indices of an optimal cover in input order. The search
// checks ctx every 4096 nodes and returns ctx.Err() when it is done.
func (b BranchAndBound) Solve(ctx context.Context, p *Problem) ([]int, error) {
	if p.NumKeys() == 0 {
		return nil, nil
	}
	selected := make([]bool, p.Len())
	for _, c := range p.components() {
		if err := expired(ctx); err != nil {
			return nil, err
		}
		sel, err := b.solveComponent(ctx, p, c)
		if err != nil {
			return nil, err
		}
		for _, i := range sel {
			selected[i] = true
		}
	}
	var cover []int
	for i, ok := range selected {
		if ok {
			cover = append(cover, i)
		}
	}
	return cover, nil
}

// expired is ctx.Err() that also reports a passed deadline whose timer has
// not fired yet.
func expired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return nil
}

func (b BranchAndBound) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

type component struct {
	sets []int // global set indices, ascending
	keys []int // global key indices, ascending
}

// components groups non-empty sets that are connected through shared keys.
func (p *Problem) components() []component {
	parent := make([]int, p.NumKeys())
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, m := range p.members {
		for _, k := range m[min(1, len(m)):] {
			ra, rb := find(m[0]), find(k)
			if ra != rb {
				parent[rb] = ra
			}
		}
	}

	compOf := make(map[int]int)
	var comps []component
	for i, m := range p.members {
		if len(m) == 0 {
			continue
		}
		r := find(m[0])
		ci, ok := compOf[r]
		if !ok {
			ci = len(comps)
			compOf[r] = ci
			comps = append(comps, component{})
		}
		comps[ci].sets = append(comps[ci].sets, i)
	}
	for k := range p.keys {
		ci := compOf[find(k)]
		comps[ci].keys = append(comps[ci].keys, k)
	}
	return comps
}

func (b BranchAndBound) solveComponent(ctx context.Context, p *Problem, c component) ([]int, error) {
	local := make(map[int]int, len(c.keys))
	for li, k := range c.keys {
		local[k] = li
	}
	sets := make([][]int, len(c.sets))
	for li, gi := range c.sets {
		keys := make([]int, len(p.members[gi]))
		for j, k := range p.members[gi] {
			keys[j] = local[k]
		}
		sets[li] = keys
	}
	order := make([]int, len(c.sets))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return p.before(c.sets[order[i]], c.sets[order[j]]) })
	rank := make([]int, len(c.sets))
	for r, i := range order {
		rank[i] = r
	}

	red := newReducer(sets, len(c.keys), rank)
	if err := red.run(); err != nil {
		return nil, err
	}
	var sel []int
	for _, li := range red.forced {
		sel = append(sel, c.sets[li])
	}

	rsets, rrank, rmap, nkeys := red.residual()
	if nkeys == 0 {
		return sel, nil
	}

	s := newSearch(ctx, rsets, nkeys, rrank)
	s.incumbent()
	lb := s.lowerBound()
	limit := b.LPCells
	if limit == 0 {
		limit = DefaultLPCells
	}
	if limit > 0 && nkeys*(len(rsets)+nkeys) <= limit && lb < len(s.best) {
		lpLB, err := lpBound(rsets, nkeys)
		if err != nil {
			b.logger().Debug("LP relaxation failed, using combinatorial bound",
				"sets", len(rsets), "keys", nkeys, "error", err)
		} else if lpLB > lb {
			lb = lpLB
		}
	}
	if lb < len(s.best) {
		if err := s.dfs(); err != nil {
			return nil, err
		}
	}
	for _, ri := range s.best {
		sel = append(sel, c.sets[rmap[ri]])
	}
	return sel, nil
}

// reducer applies the classic set cover reductions until a fixpoint.
type reducer struct {
	sets     [][]int
	rank     []int
	alive    []bool
	keyAlive []bool
	cur      [][]int // sets restricted to alive keys
	forced   []int
}

func newReducer(sets [][]int, nkeys int, rank []int) *reducer {
	r := &reducer{
		sets:     sets,
		rank:     rank,
		alive:    make([]bool, len(sets)),
		keyAlive: make([]bool, nkeys),
		cur:      make([][]int, len(sets)),
	}
	for i := range r.alive {
		r.alive[i] = true
	}
	for k := range r.keyAlive {
		r.keyAlive[k] = true
	}
	return r
}

func (r *reducer) run() error {
	for changed := true; changed; {
		changed = false
		r.restrict()
		owners := r.owners()
		for k, os := range owners {
			if !r.keyAlive[k] {
				continue
			}
			if len(os) == 0 {
				return ErrInfeasible
			}
			if len(os) == 1 && r.alive[os[0]] {
				r.force(os[0])
				changed = true
			}
		}
		if changed {
			continue
		}
		changed = r.dropDominated(owners)
	}
	return nil
}

func (r *reducer) restrict() {
	for s, keys := range r.sets {
		if !r.alive[s] {
			continue
		}
		cur := r.cur[s][:0]
		if cur == nil {
			cur = make([]int, 0, len(keys))
		}
		for _, k := range keys {
			if r.keyAlive[k] {
				cur = append(cur, k)
			}
		}
		r.cur[s] = cur
		if len(cur) == 0 {
			r.alive[s] = false
		}
	}
}

func (r *reducer) owners() [][]int {
	owners := make([][]int, len(r.keyAlive))
	for s, keys := range r.cur {
		if !r.alive[s] {
			continue
		}
		for _, k := range keys {
			owners[k] = append(owners[k], s)
		}
	}
	return owners
}

func (r *reducer) force(s int) {
	r.forced = append(r.forced, s)
	r.alive[s] = false
	for _, k := range r.cur[s] {
		r.keyAlive[k] = false
	}
}

// dropDominated removes every set contained in another live set. Of
// identical sets the one with the lowest rank survives.
func (r *reducer) dropDominated(owners [][]int) bool {
	dropped := false
	for a, keys := range r.cur {
		if !r.alive[a] {
			continue
		}
		kmin := keys[0]
		for _, k := range keys[1:] {
			if len(owners[k]) < len(owners[kmin]) {
				kmin = k
			}
		}
		for _, b := range owners[kmin] {
			if b == a || !r.alive[b] {
				continue
			}
			if len(r.cur[b]) < len(keys) ||
				(len(r.cur[b]) == len(keys) && r.rank[b] > r.rank[a]) {
				continue
			}
			if subsetSorted(keys, r.cur[b]) {
				r.alive[a] = false
				dropped = true
				break
			}
		}
	}
	return dropped
}

// residual returns the surviving sets over re-indexed surviving keys, their
// ranks, and the mapping back to component-local set indices.
func (r *reducer) residual() (sets [][]int, rank []int, setMap []int, nkeys int) {
	keyMap := make([]int, len(r.keyAlive))
	for k, ok := range r.keyAlive {
		keyMap[k] = -1
		if ok {
			keyMap[k] = nkeys
			nkeys++
		}
	}
	for s, keys := range r.cur {
		if !r.alive[s] {
			continue
		}
		rk := make([]int, len(keys))
		for i, k := range keys {
			rk[i] = keyMap[k]
		}
		sets = append(sets, rk)
		rank = append(rank, r.rank[s])
		setMap = append(setMap, s)
	}
	return sets, rank, setMap, nkeys
}

// subsetSorted reports whether sorted a is contained in sorted b.
func subsetSorted(a, b []int) bool {
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j == len(b) || b[j] != x {
			return false
		}
		j++
	}
	return true
}

// search holds the depth-first branch-and-bound state over one residual
// component.
type search struct {
	ctx    context.Context
	sets   [][]int
	owners [][]int
	rank   []int
	byRare []int // keys by ascending owner count, for the packing bound

	cover  []int // per key: number of chosen sets containing it
	open   int   // uncovered keys
	excl   []bool
	chosen []int
	best   []int

	nodes int
	mark  []int
	stamp int
}

func newSearch(ctx context.Context, sets [][]int, nkeys int, rank []int) *search {
	s := &search{
		ctx:    ctx,
		sets:   sets,
		owners: make([][]int, nkeys),
		rank:   rank,
		cover:  make([]int, nkeys),
		open:   nkeys,
		excl:   make([]bool, len(sets)),
		mark:   make([]int, len(sets)),
	}
	for j, keys := range sets {
		for _, k := range keys {
			s.owners[k] = append(s.owners[k], j)
		}
	}
	s.byRare = make([]int, nkeys)
	for k := range s.byRare {
		s.byRare[k] = k
	}
	sort.SliceStable(s.byRare, func(i, j int) bool {
		return len(s.owners[s.byRare[i]]) < len(s.owners[s.byRare[j]])
	})
	return s
}

func (s *search) add(j int) {
	s.chosen = append(s.chosen, j)
	for _, k := range s.sets[j] {
		if s.cover[k] == 0 {
			s.open--
		}
		s.cover[k]++
	}
}

func (s *search) remove(j int) {
	s.chosen = s.chosen[:len(s.chosen)-1]
	for _, k := range s.sets[j] {
		s.cover[k]--
		if s.cover[k] == 0 {
			s.open++
		}
	}
}

func (s *search) gain(j int) int {
	g := 0
	for _, k := range s.sets[j] {
		if s.cover[k] == 0 {
			g++
		}
	}
	return g
}

// incumbent seeds the upper bound with a greedy cover.
func (s *search) incumbent() {
	for s.open > 0 {
		bestJ, bestG := -1, 0
		for j := range s.sets {
			g := s.gain(j)
			if g > bestG || (g == bestG && g > 0 && s.rank[j] < s.rank[bestJ]) {
				bestJ, bestG = j, g
			}
		}
		s.add(bestJ)
	}
	s.best = append([]int(nil), s.chosen...)
	for i := len(s.chosen) - 1; i >= 0; i-- {
		s.remove(s.chosen[i])
	}
}

// lowerBound returns an admissible bound on the number of additional sets
// needed to cover the open keys.
func (s *search) lowerBound() int {
	if s.open == 0 {
		return 0
	}
	maxGain := 0
	for j := range s.sets {
		if !s.excl[j] {
			maxGain = max(maxGain, s.gain(j))
		}
	}
	if maxGain == 0 {
		return len(s.sets) + 1
	}
	lb := (s.open + maxGain - 1) / maxGain

	// Keys whose owner sets are pairwise disjoint each need their own set
	s.stamp++
	packing := 0
	for _, k := range s.byRare {
		if s.cover[k] > 0 {
			continue
		}
		free := true
		avail := 0
		for _, j := range s.owners[k] {
			if s.excl[j] {
				continue
			}
			avail++
			if s.mark[j] == s.stamp {
				free = false
				break
			}
		}
		if avail == 0 {
			return len(s.sets) + 1
		}
		if !free {
			continue
		}
		packing++
		for _, j := range s.owners[k] {
			s.mark[j] = s.stamp
		}
	}
	return max(lb, packing)
}

func (s *search) dfs() error {
	s.nodes++
	if s.nodes&4095 == 0 {
		if err := expired(s.ctx); err != nil {
			return err
		}
	}
	if s.open == 0 {
		if len(s.chosen) < len(s.best) {
			s.best = append(s.best[:0], s.chosen...)
		}
		return nil
	}
	if len(s.chosen)+s.lowerBound() >= len(s.best) {
		return nil
	}

	// Branch on the open key with the fewest available owners
	branchKey, fewest := -1, 0
	for k, os := range s.owners {
		if s.cover[k] > 0 {
			continue
		}
		avail := 0
		for _, j := range os {
			if !s.excl[j] {
				avail++
			}
		}
		if branchKey < 0 || avail < fewest {
			branchKey, fewest = k, avail
		}
	}
	type cand struct{ set, gain int }
	cands := make([]cand, 0, fewest)
	for _, j := range s.owners[branchKey] {
		if !s.excl[j] {
			cands = append(cands, cand{j, s.gain(j)})
		}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].gain != cands[b].gain {
			return cands[a].gain > cands[b].gain
		}
		return s.rank[cands[a].set] < s.rank[cands[b].set]
	})

	// One of the candidates must be chosen. After exploring a candidate it
	// is excluded from its siblings' subtrees.
	var err error
	done := 0
	for _, c := range cands {
		s.add(c.set)
		err = s.dfs()
		s.remove(c.set)
		if err != nil {
			break
		}
		s.excl[c.set] = true
		done++
	}
	for _, c := range cands[:done] {
		s.excl[c.set] = false
	}
	return err
}

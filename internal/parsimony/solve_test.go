package parsimony_test

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/524D/protgraph/internal/parsimony"
)

func abcdProblem() *parsimony.Problem {
	return parsimony.NewProblem([]parsimony.Set{
		{ID: "P1", Keys: []string{"A", "B"}},
		{ID: "P2", Keys: []string{"B", "C"}},
		{ID: "P3", Keys: []string{"C", "D"}},
	})
}

// randomProblem builds a seeded random instance with nsets sets over at most
// nkeys keys.
func randomProblem(seed int64, nsets, nkeys int) *parsimony.Problem {
	r := rand.New(rand.NewSource(seed))
	sets := make([]parsimony.Set, nsets)
	for i := range sets {
		n := 1 + r.Intn(4)
		keys := make([]string, n)
		for j := range keys {
			keys[j] = fmt.Sprintf("k%02d", r.Intn(nkeys))
		}
		sets[i] = parsimony.Set{ID: fmt.Sprintf("S%02d", r.Intn(nsets)), Keys: keys}
	}
	return parsimony.NewProblem(sets)
}

// bruteForceMin returns the optimal cover size by enumerating all subsets.
func bruteForceMin(p *parsimony.Problem) int {
	best := p.Len() + 1
	for mask := 0; mask < 1<<p.Len(); mask++ {
		n := bits.OnesCount(uint(mask))
		if n >= best {
			continue
		}
		var cover []int
		for i := 0; i < p.Len(); i++ {
			if mask&(1<<i) != 0 {
				cover = append(cover, i)
			}
		}
		if p.Covers(cover) {
			best = n
		}
	}
	return best
}

func TestGreedyABCD(t *testing.T) {
	p := abcdProblem()
	cover, err := parsimony.Greedy{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.True(t, p.Covers(cover))
	// P1 wins the first tie on ID, then P3 is the only set with gain 2
	require.Equal(t, []string{"P1", "P3"}, p.IDs(cover))
}

func TestExactABCD(t *testing.T) {
	p := abcdProblem()
	cover, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.True(t, p.Covers(cover))
	require.Len(t, cover, 2)
	require.Equal(t, []string{"P1", "P3"}, p.IDs(cover))
}

func TestGreedySelectionOrder(t *testing.T) {
	p := parsimony.NewProblem([]parsimony.Set{
		{ID: "small", Keys: []string{"x"}},
		{ID: "big", Keys: []string{"a", "b", "c"}},
		{ID: "mid", Keys: []string{"c", "d", "x"}},
	})
	cover, err := parsimony.Greedy{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, []string{"big", "mid"}, p.IDs(cover))
}

func TestEmptyUniverse(t *testing.T) {
	for _, p := range []*parsimony.Problem{
		parsimony.NewProblem(nil),
		parsimony.NewProblem([]parsimony.Set{{ID: "P1"}}),
	} {
		for _, s := range []parsimony.Solver{parsimony.Greedy{}, parsimony.BranchAndBound{}} {
			cover, err := s.Solve(context.Background(), p)
			require.NoError(t, err)
			require.Empty(t, cover)
		}
		res, err := parsimony.Solve(context.Background(), p, 0, parsimony.Options{})
		require.NoError(t, err)
		require.Empty(t, res.Cover)
	}
}

func TestExactIsOptimal(t *testing.T) {
	for seed := int64(1); seed <= 60; seed++ {
		p := randomProblem(seed, 12, 14)
		cover, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err, "seed %d", seed)
		require.True(t, p.Covers(cover), "seed %d", seed)
		require.Equal(t, bruteForceMin(p), len(cover), "seed %d", seed)
		require.True(t, sort.IntsAreSorted(cover), "seed %d: exact cover must be in input order", seed)
	}
}

func TestExactNoLargerThanGreedy(t *testing.T) {
	for seed := int64(100); seed < 140; seed++ {
		p := randomProblem(seed, 60, 50)
		exact, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		greedy, err := parsimony.Greedy{}.Solve(context.Background(), p)
		require.NoError(t, err)
		require.True(t, p.Covers(exact), "seed %d", seed)
		require.True(t, p.Covers(greedy), "seed %d", seed)
		require.LessOrEqual(t, len(exact), len(greedy), "seed %d", seed)
	}
}

func TestExactWithoutLP(t *testing.T) {
	for seed := int64(200); seed < 220; seed++ {
		p := randomProblem(seed, 12, 10)
		withLP, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		noLP, err := parsimony.BranchAndBound{LPCells: -1}.Solve(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, len(withLP), len(noLP), "seed %d", seed)
	}
}

func TestExactDeterministic(t *testing.T) {
	p := randomProblem(7, 40, 30)
	first, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := parsimony.BranchAndBound{}.Solve(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestExactCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parsimony.BranchAndBound{}.Solve(ctx, abcdProblem())
	require.ErrorIs(t, err, context.Canceled)
}

func TestChoose(t *testing.T) {
	cases := []struct {
		candidates, records int
		opts                parsimony.Options
		want                parsimony.Algorithm
	}{
		{10, 10, parsimony.Options{}, parsimony.Exact},
		{5000, 10000, parsimony.Options{}, parsimony.Exact},
		{5001, 1, parsimony.Options{}, parsimony.Heuristic},
		{1, 10001, parsimony.Options{}, parsimony.Heuristic},
		{3, 3, parsimony.Options{ProteinThreshold: 2}, parsimony.Heuristic},
		{3, 3, parsimony.Options{PeptideThreshold: 2}, parsimony.Heuristic},
		{2, 2, parsimony.Options{ProteinThreshold: 2, PeptideThreshold: 2}, parsimony.Exact},
	}
	for _, c := range cases {
		got := parsimony.Choose(c.candidates, c.records, c.opts)
		require.Equal(t, c.want, got, "Choose(%d, %d, %+v)", c.candidates, c.records, c.opts)
	}
}

func TestAlgorithmString(t *testing.T) {
	require.Equal(t, "exact", parsimony.Exact.String())
	require.Equal(t, "heuristic", parsimony.Heuristic.String())
}

func TestSolveDispatch(t *testing.T) {
	p := abcdProblem()
	res, err := parsimony.Solve(context.Background(), p, 6, parsimony.Options{})
	require.NoError(t, err)
	require.Equal(t, parsimony.Exact, res.Algorithm)
	require.Len(t, res.Cover, 2)

	res, err = parsimony.Solve(context.Background(), p, 6, parsimony.Options{ProteinThreshold: 1})
	require.NoError(t, err)
	require.Equal(t, parsimony.Heuristic, res.Algorithm)
	require.Equal(t, []string{"P1", "P3"}, res.IDs(p))
}

func TestSolveTimeoutFallsBack(t *testing.T) {
	p := randomProblem(3, 30, 20)
	res, err := parsimony.Solve(context.Background(), p, 0, parsimony.Options{ExactTimeout: time.Nanosecond})
	require.NoError(t, err)
	require.True(t, res.FellBack)
	require.True(t, p.Covers(res.Cover))
}

func TestSolveCallerCancelIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parsimony.Solve(ctx, abcdProblem(), 0, parsimony.Options{ExactTimeout: time.Hour})
	require.True(t, errors.Is(err, context.Canceled))
}

type memCache struct {
	m    map[string][]string
	gets int
	puts int
}

func (c *memCache) Get(key string) ([]string, bool, error) {
	c.gets++
	ids, ok := c.m[key]
	return ids, ok, nil
}

func (c *memCache) Put(key string, ids []string) error {
	c.puts++
	c.m[key] = ids
	return nil
}

func TestSolveCache(t *testing.T) {
	c := &memCache{m: map[string][]string{}}
	p := abcdProblem()
	opts := parsimony.Options{Cache: c}

	first, err := parsimony.Solve(context.Background(), p, 6, opts)
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, 1, c.puts)

	second, err := parsimony.Solve(context.Background(), abcdProblem(), 6, opts)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.IDs(p), second.IDs(p))
	require.Equal(t, 1, c.puts)
}

func TestSolveIgnoresInfeasibleCachedCover(t *testing.T) {
	p := abcdProblem()
	c := &memCache{m: map[string][]string{
		parsimony.Fingerprint(p, parsimony.Exact): {"P1"},
	}}
	res, err := parsimony.Solve(context.Background(), p, 6, parsimony.Options{Cache: c})
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.True(t, p.Covers(res.Cover))
	require.Equal(t, []string{"P1", "P3"}, c.m[parsimony.Fingerprint(p, parsimony.Exact)])
}

func TestFingerprint(t *testing.T) {
	a := parsimony.Fingerprint(abcdProblem(), parsimony.Exact)
	require.Equal(t, a, parsimony.Fingerprint(abcdProblem(), parsimony.Exact))
	require.NotEqual(t, a, parsimony.Fingerprint(abcdProblem(), parsimony.Heuristic))

	reordered := parsimony.NewProblem([]parsimony.Set{
		{ID: "P1", Keys: []string{"B", "A"}},
		{ID: "P2", Keys: []string{"C", "B"}},
		{ID: "P3", Keys: []string{"D", "C", "C"}},
	})
	require.Equal(t, a, parsimony.Fingerprint(reordered, parsimony.Exact))
}

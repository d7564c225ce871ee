package parsimony

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubsetSorted(t *testing.T) {
	require.True(t, subsetSorted(nil, []int{1}))
	require.True(t, subsetSorted([]int{1, 3}, []int{0, 1, 2, 3}))
	require.False(t, subsetSorted([]int{1, 4}, []int{0, 1, 2, 3}))
	require.False(t, subsetSorted([]int{1}, nil))
}

func TestComponents(t *testing.T) {
	p := NewProblem([]Set{
		{ID: "a", Keys: []string{"x", "y"}},
		{ID: "b", Keys: []string{"z"}},
		{ID: "c", Keys: []string{"y", "w"}},
		{ID: "empty"},
	})
	comps := p.components()
	require.Len(t, comps, 2)
	require.Equal(t, []int{0, 2}, comps[0].sets)
	require.Equal(t, []int{1}, comps[1].sets)
	require.Len(t, comps[0].keys, 3)
	require.Len(t, comps[1].keys, 1)
}

func TestReducerDropsDuplicatesByRank(t *testing.T) {
	// Sets 0 and 1 are identical, 2 is contained in 0
	sets := [][]int{{0, 1}, {0, 1}, {1}, {1, 2}, {2, 3}, {3, 0}}
	rank := []int{1, 0, 2, 3, 4, 5}
	r := newReducer(sets, 4, rank)
	require.NoError(t, r.run())
	require.Empty(t, r.forced)
	require.False(t, r.alive[0], "higher ranked duplicate survived")
	require.True(t, r.alive[1])
	require.False(t, r.alive[2], "dominated set survived")
}

func TestReducerForcesEssentialSets(t *testing.T) {
	sets := [][]int{{0, 1}, {1, 2}, {2}}
	r := newReducer(sets, 3, []int{0, 1, 2})
	require.NoError(t, r.run())
	// Key 0 forces set 0; set 2 is then dominated by set 1, which becomes
	// essential for key 2
	require.Equal(t, []int{0, 1}, r.forced)
	_, _, _, nkeys := r.residual()
	require.Zero(t, nkeys)
}

func TestLPBound(t *testing.T) {
	// Odd cycle of five keys with pair sets: LP optimum 2.5, bound 3
	sets := [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}}
	lb, err := lpBound(sets, 5)
	require.NoError(t, err)
	require.Equal(t, 3, lb)
}

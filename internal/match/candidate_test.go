package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	names := []string{"relation-map-table", "relation", "handler", "relation-collection-table"}

	candidates := Rank("relaton", names)
	require.Len(t, candidates, 4)
	assert.Equal(t, "relation", candidates[0].Name)
	assert.Greater(t, candidates[0].Score, 0.8)
}

func TestCandidateList_Sorting(t *testing.T) {
	candidates := Rank("x", []string{"b", "a", "c"})

	// equal scores fall back to name order
	assert.Equal(t, "a", candidates[0].Name)
	assert.Equal(t, "b", candidates[1].Name)
	assert.Equal(t, "c", candidates[2].Name)
}

func TestCandidateList_Helpers(t *testing.T) {
	c := CandidateList{{Name: "a", Score: 0.9}, {Name: "b", Score: 0.85}, {Name: "c", Score: 0.2}}

	assert.Len(t, c.Top(2), 2)
	assert.Len(t, c.Top(10), 3)
	assert.Equal(t, "a", c.Best().Name)
	assert.True(t, c.IsAmbiguous(0.1))
	assert.False(t, c.IsAmbiguous(0.01))
	assert.Len(t, c.AboveThreshold(0.5), 2)
	assert.Nil(t, CandidateList{}.Best())
}

func TestSuggest(t *testing.T) {
	aliases := []string{"full", "flat", "vertical", "none"}

	assert.Equal(t, []string{"vertical"}, Suggest("verticle", aliases, 3))
	assert.Equal(t, []string{"flat"}, Suggest("flta", aliases, 2))
	assert.Empty(t, Suggest("zzzzzzzz", aliases, 3))
}

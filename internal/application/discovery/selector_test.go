package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionCandidates(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ID: id, Name: "game-" + id}
	}
	return out
}

func TestParseSelection(t *testing.T) {
	cands := selectionCandidates("g1", "g2", "g3")

	t.Run("valid output preserves model order", func(t *testing.T) {
		raw := `[{"id":"g3","reason":"closest match"},{"id":"g1","reason":"also fits"}]`
		picks, err := parseSelection(raw, cands, 10)
		require.NoError(t, err)
		require.Len(t, picks, 2)
		assert.Equal(t, "g3", picks[0].GameID)
		assert.Equal(t, "g1", picks[1].GameID)
	})

	t.Run("fenced output accepted", func(t *testing.T) {
		raw := "```json\n[{\"id\":\"g2\",\"reason\":\"fits\"}]\n```"
		picks, err := parseSelection(raw, cands, 10)
		require.NoError(t, err)
		assert.Equal(t, "g2", picks[0].GameID)
	})

	t.Run("unknown ids filtered out", func(t *testing.T) {
		raw := `[{"id":"nope","reason":"x"},{"id":"g1","reason":"fits"}]`
		picks, err := parseSelection(raw, cands, 10)
		require.NoError(t, err)
		require.Len(t, picks, 1)
		assert.Equal(t, "g1", picks[0].GameID)
	})

	t.Run("all unknown ids is a parse failure", func(t *testing.T) {
		raw := `[{"id":"nope","reason":"x"}]`
		_, err := parseSelection(raw, cands, 10)
		assert.Error(t, err)
	})

	t.Run("duplicates keep first occurrence", func(t *testing.T) {
		raw := `[{"id":"g1","reason":"first"},{"id":"g1","reason":"second"},{"id":"g2","reason":"ok"}]`
		picks, err := parseSelection(raw, cands, 10)
		require.NoError(t, err)
		require.Len(t, picks, 2)
		assert.Equal(t, "first", picks[0].Reason)
	})

	t.Run("limit enforced", func(t *testing.T) {
		raw := `[{"id":"g1"},{"id":"g2"},{"id":"g3"}]`
		picks, err := parseSelection(raw, cands, 2)
		require.NoError(t, err)
		assert.Len(t, picks, 2)
	})

	t.Run("empty array rejected", func(t *testing.T) {
		_, err := parseSelection(`[]`, cands, 10)
		assert.Error(t, err)
	})

	t.Run("non-json rejected", func(t *testing.T) {
		_, err := parseSelection("these all look great", cands, 10)
		assert.Error(t, err)
	})
}

func TestCandidateDigest(t *testing.T) {
	c := Candidate{
		ID:               "g1",
		Name:             "Dusk Harbor",
		Genres:           []string{"Adventure", "Indie"},
		ReviewScore:      88,
		ReviewCount:      1234,
		ReleaseYear:      2021,
		IsFree:           true,
		ShortDescription: "A quiet exploration game about a fishing town.",
	}
	digest := candidateDigest(&c)
	assert.Contains(t, digest, "[id=g1]")
	assert.Contains(t, digest, "Dusk Harbor")
	assert.Contains(t, digest, "Adventure, Indie")
	assert.Contains(t, digest, "88% positive (1234 reviews)")
	assert.Contains(t, digest, "free to play")
}

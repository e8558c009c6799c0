package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
)

func TestBestNameMatch(t *testing.T) {
	games := []*entity.Game{
		{ID: "1", Name: "Hades II", ReviewCount: 50000},
		{ID: "2", Name: "Hades", ReviewCount: 200000},
		{ID: "3", Name: "Shades of Hades", ReviewCount: 900000},
	}

	t.Run("exact beats prefix and substring", func(t *testing.T) {
		got := BestNameMatch("hades", games)
		require.NotNil(t, got)
		assert.Equal(t, "2", got.ID)
	})

	t.Run("prefix beats substring", func(t *testing.T) {
		got := BestNameMatch("hades i", games)
		require.NotNil(t, got)
		assert.Equal(t, "1", got.ID)
	})

	t.Run("substring fallback", func(t *testing.T) {
		got := BestNameMatch("shades", []*entity.Game{games[2]})
		require.NotNil(t, got)
		assert.Equal(t, "3", got.ID)
	})

	t.Run("tie broken by review count", func(t *testing.T) {
		tied := []*entity.Game{
			{ID: "a", Name: "Portal Stories", ReviewCount: 100},
			{ID: "b", Name: "Portal Quest", ReviewCount: 5000},
		}
		got := BestNameMatch("portal", tied)
		require.NotNil(t, got)
		assert.Equal(t, "b", got.ID)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		assert.Nil(t, BestNameMatch("stardew", games))
		assert.Nil(t, BestNameMatch("", games))
		assert.Nil(t, BestNameMatch("hades", nil))
	})
}

// popularWindow 模拟子串召回窗口：全是更热门的前缀/子串命中，精确条目不在其中
func popularWindow(n int) []*entity.Game {
	out := make([]*entity.Game, n)
	for i := 0; i < n; i++ {
		out[i] = &entity.Game{
			ID:          fmt.Sprintf("portal-spinoff-%d", i+1),
			Name:        fmt.Sprintf("Portal Chronicles %d", i+1),
			ReviewCount: int64(1000000 - i),
		}
	}
	return out
}

func TestResolverResolve_ExactMatchOutsideSubstringWindow(t *testing.T) {
	games := &stubGames{
		exact:  &entity.Game{ID: "portal", Name: "Portal", ReviewCount: 500},
		byName: popularWindow(20),
	}
	index := &stubIndex{vectors: map[string][]float32{
		"portal": {0.4, 0.4, 0.4},
	}}
	embedder := &stubEmbedder{vector: []float64{0.1, 0.2, 0.3}}
	r := NewResolver(games, index, &stubDescriber{description: UnknownGameSentinel}, embedder)

	analysis := &IntentAnalysis{
		Type:              IntentSpecificGame,
		GameName:          "Portal",
		SearchDescription: "first-person puzzle game",
	}
	vec, matched, err := r.Resolve(context.Background(), analysis, "games like Portal")
	require.NoError(t, err)

	// 精确命中胜过窗口里更热门的前缀条目，且复用已存向量
	require.NotNil(t, matched)
	assert.Equal(t, "portal", matched.ID)
	assert.Equal(t, []float32{0.4, 0.4, 0.4}, vec)
	assert.Empty(t, embedder.gotTexts)
}

func TestResolverResolve_ExactLookupFailureFallsBackToWindow(t *testing.T) {
	games := &stubGames{
		exactErr: errors.New("db timeout"),
		byName: []*entity.Game{
			{ID: "portal-2", Name: "Portal 2", ReviewCount: 900},
		},
	}
	index := &stubIndex{vectors: map[string][]float32{
		"portal-2": {0.7, 0.7},
	}}
	r := NewResolver(games, index, &stubDescriber{description: UnknownGameSentinel}, &stubEmbedder{vector: []float64{0.1}})

	analysis := &IntentAnalysis{
		Type:              IntentSpecificGame,
		GameName:          "Portal",
		SearchDescription: "first-person puzzle game",
	}
	vec, matched, err := r.Resolve(context.Background(), analysis, "games like Portal")
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "portal-2", matched.ID)
	assert.Equal(t, []float32{0.7, 0.7}, vec)
}

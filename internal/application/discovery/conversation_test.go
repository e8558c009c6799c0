package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationManager_Resume(t *testing.T) {
	m := NewConversationManager(3)

	t.Run("nil token starts fresh", func(t *testing.T) {
		state, reset := m.Resume(nil, "", "cozy farming sims")
		assert.False(t, reset)
		assert.Equal(t, 1, state.Round)
		assert.Equal(t, "cozy farming sims", state.OriginalQuery)
		assert.Empty(t, state.Refinements)
		assert.True(t, m.CanRefine(&state))
	})

	t.Run("refinement advances round", func(t *testing.T) {
		prev := ConversationState{Version: stateVersion, OriginalQuery: "cozy farming sims", Round: 1}
		state, reset := m.Resume(&prev, "with co-op", "")
		require.False(t, reset)
		assert.Equal(t, 2, state.Round)
		assert.Equal(t, []string{"with co-op"}, state.Refinements)
		assert.Equal(t, "cozy farming sims with co-op", m.EffectiveQuery(&state))
	})

	t.Run("refinement at final round is ignored", func(t *testing.T) {
		prev := ConversationState{
			Version:       stateVersion,
			OriginalQuery: "cozy farming sims",
			Refinements:   []string{"with co-op", "on a budget"},
			Round:         3,
		}
		state, reset := m.Resume(&prev, "something else", "")
		require.False(t, reset)
		assert.Equal(t, 3, state.Round)
		assert.Len(t, state.Refinements, 2)
		assert.False(t, m.CanRefine(&state))
	})

	t.Run("malformed token resets to fresh conversation", func(t *testing.T) {
		cases := []ConversationState{
			{Version: 99, OriginalQuery: "q", Round: 1},
			{Version: stateVersion, OriginalQuery: "", Round: 1},
			{Version: stateVersion, OriginalQuery: "q", Round: 0},
			{Version: stateVersion, OriginalQuery: "q", Round: 4, Refinements: []string{"a", "b", "c"}},
			{Version: stateVersion, OriginalQuery: "q", Round: 2},                               // 轮数与精化数不一致
			{Version: stateVersion, OriginalQuery: "q", Round: 2, Refinements: []string{"  "}}, // 空精化
		}
		for _, prev := range cases {
			state, reset := m.Resume(&prev, "", "fresh query")
			assert.True(t, reset)
			assert.Equal(t, 1, state.Round)
			assert.Equal(t, "fresh query", state.OriginalQuery)
		}
	})

	t.Run("resume does not mutate previous token", func(t *testing.T) {
		prev := ConversationState{
			Version:       stateVersion,
			OriginalQuery: "roguelikes",
			Refinements:   []string{"fast runs"},
			Round:         2,
		}
		_, _ = m.Resume(&prev, "pixel art", "")
		assert.Equal(t, []string{"fast runs"}, prev.Refinements)
		assert.Equal(t, 2, prev.Round)
	})
}

func TestConversationManager_EffectiveQuery(t *testing.T) {
	m := NewConversationManager(3)
	state := ConversationState{
		OriginalQuery: "  tactical shooters ",
		Refinements:   []string{"team-based", " ", "modern setting"},
	}
	assert.Equal(t, "tactical shooters team-based modern setting", m.EffectiveQuery(&state))
}

func TestNewConversationManager_Defaults(t *testing.T) {
	m := NewConversationManager(0)
	assert.Equal(t, 3, m.MaxRounds())
}

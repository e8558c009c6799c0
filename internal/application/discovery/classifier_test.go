package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntentAnalysis(t *testing.T) {
	t.Run("valid output with markdown fences", func(t *testing.T) {
		raw := "```json\n{\"type\":\"specific_game\",\"gameName\":\"Hades\",\"searchDescription\":\"fast roguelike action\",\"confidence\":92,\"followUpQuestions\":[]}\n```"
		analysis, err := parseIntentAnalysis(raw)
		require.NoError(t, err)
		assert.Equal(t, IntentSpecificGame, analysis.Type)
		assert.Equal(t, "Hades", analysis.GameName)
		assert.Equal(t, 92, analysis.Confidence)
		// 追问不足时补齐到固定数量
		assert.Len(t, analysis.FollowUpQuestions, followUpCount)
	})

	t.Run("leading prose is stripped", func(t *testing.T) {
		raw := `Here is my classification: {"type":"vague","gameName":"","searchDescription":"something fun","confidence":30,"followUpQuestions":[]}`
		analysis, err := parseIntentAnalysis(raw)
		require.NoError(t, err)
		assert.Equal(t, IntentVague, analysis.Type)
	})

	t.Run("unknown intent type rejected", func(t *testing.T) {
		_, err := parseIntentAnalysis(`{"type":"other","searchDescription":"x"}`)
		assert.Error(t, err)
	})

	t.Run("specific_game without a name rejected", func(t *testing.T) {
		_, err := parseIntentAnalysis(`{"type":"specific_game","gameName":"  ","searchDescription":"x"}`)
		assert.Error(t, err)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		analysis, err := parseIntentAnalysis(`{"type":"clear_intent","searchDescription":"x","confidence":150}`)
		require.NoError(t, err)
		assert.Equal(t, 100, analysis.Confidence)
	})

	t.Run("non-json rejected", func(t *testing.T) {
		_, err := parseIntentAnalysis("I could not classify that query.")
		assert.Error(t, err)
	})
}

func TestSanitizeFollowUps(t *testing.T) {
	t.Run("platform questions are dropped", func(t *testing.T) {
		in := []FollowUpQuestion{
			{Question: "What platform do you play on?", SuggestedAnswers: []string{"PC", "Console"}},
			{Question: "What pace do you enjoy?", SuggestedAnswers: []string{"Fast", "Slow"}},
		}
		out := sanitizeFollowUps(in)
		require.Len(t, out, followUpCount)
		assert.Equal(t, "What pace do you enjoy?", out[0].Question)
		for _, q := range out {
			assert.False(t, mentionsPlatform(q.Question))
		}
	})

	t.Run("answers clamped to four", func(t *testing.T) {
		in := []FollowUpQuestion{
			{Question: "Which genre?", SuggestedAnswers: []string{"A", "B", "C", "D", "E", "F"}},
		}
		out := sanitizeFollowUps(in)
		assert.Len(t, out[0].SuggestedAnswers, 4)
	})

	t.Run("questions with too few answers are dropped", func(t *testing.T) {
		in := []FollowUpQuestion{
			{Question: "Which genre?", SuggestedAnswers: []string{"Action"}},
		}
		out := sanitizeFollowUps(in)
		require.Len(t, out, followUpCount)
		assert.NotEqual(t, "Which genre?", out[0].Question)
	})

	t.Run("always exactly three questions", func(t *testing.T) {
		out := sanitizeFollowUps(nil)
		assert.Len(t, out, followUpCount)
		assert.Equal(t, genericFollowUps, out)
	})
}

func TestFallbackAnalysis(t *testing.T) {
	analysis := FallbackAnalysis("  relaxing puzzle games  ")
	assert.Equal(t, IntentClearIntent, analysis.Type)
	assert.Equal(t, "relaxing puzzle games", analysis.SearchDescription)
	assert.Zero(t, analysis.Confidence)
	assert.Len(t, analysis.FollowUpQuestions, followUpCount)
}

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidatesWithCounts(counts ...int64) []Candidate {
	out := make([]Candidate, len(counts))
	for i, c := range counts {
		out[i] = Candidate{ID: string(rune('a' + i)), ReviewCount: c}
	}
	return out
}

func reviewCounts(cands []Candidate) []int64 {
	out := make([]int64, len(cands))
	for i, c := range cands {
		out[i] = c.ReviewCount
	}
	return out
}

func TestApplyPopularityCurve(t *testing.T) {
	// 中位数 = (50+100)/2 = 75（只统计有评测数的条目）
	input := candidatesWithCounts(100, 10, 1000, 0, 50)

	t.Run("neutral score keeps similarity order", func(t *testing.T) {
		got := ApplyPopularityCurve(input, 50)
		assert.Equal(t, []int64{100, 10, 1000, 0, 50}, reviewCounts(got))
	})

	t.Run("hidden gems keeps low counts and unknowns, ascending", func(t *testing.T) {
		// threshold = 75 * (1 + 50/50) = 150
		got := ApplyPopularityCurve(input, 0)
		assert.Equal(t, []int64{0, 10, 50, 100}, reviewCounts(got))
	})

	t.Run("blockbusters keeps high counts, descending", func(t *testing.T) {
		// threshold = 75 * (50/50) = 75
		got := ApplyPopularityCurve(input, 100)
		assert.Equal(t, []int64{1000, 100}, reviewCounts(got))
	})

	t.Run("mild popular lean", func(t *testing.T) {
		// threshold = 75 * (25/50) = 37.5
		got := ApplyPopularityCurve(input, 75)
		assert.Equal(t, []int64{1000, 100, 50}, reviewCounts(got))
	})

	t.Run("score is clamped", func(t *testing.T) {
		assert.Equal(t,
			reviewCounts(ApplyPopularityCurve(input, 0)),
			reviewCounts(ApplyPopularityCurve(input, -10)),
		)
		assert.Equal(t,
			reviewCounts(ApplyPopularityCurve(input, 100)),
			reviewCounts(ApplyPopularityCurve(input, 250)),
		)
	})

	t.Run("no review counts means no signal", func(t *testing.T) {
		zeros := candidatesWithCounts(0, 0, 0)
		got := ApplyPopularityCurve(zeros, 90)
		assert.Equal(t, []int64{0, 0, 0}, reviewCounts(got))
	})

	t.Run("empty input", func(t *testing.T) {
		got := ApplyPopularityCurve(nil, 20)
		assert.Empty(t, got)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		before := reviewCounts(input)
		_ = ApplyPopularityCurve(input, 0)
		_ = ApplyPopularityCurve(input, 100)
		assert.Equal(t, before, reviewCounts(input))
	})
}

func TestMedianInt64(t *testing.T) {
	assert.Equal(t, 50.0, medianInt64([]int64{50}))
	assert.Equal(t, 75.0, medianInt64([]int64{100, 10, 1000, 50}))
	assert.Equal(t, 50.0, medianInt64([]int64{1000, 10, 50}))
}

func TestSimilarityFromDistance(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityFromDistance(0))
	assert.Equal(t, 0.5, SimilarityFromDistance(1))
	assert.Equal(t, 0.0, SimilarityFromDistance(2))

	// 越界距离被夹紧
	assert.Equal(t, 1.0, SimilarityFromDistance(-0.5))
	assert.Equal(t, 0.0, SimilarityFromDistance(2.5))

	require.InDelta(t, 0.85, SimilarityFromDistance(0.3), 1e-9)
}

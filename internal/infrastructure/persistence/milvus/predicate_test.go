package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
)

func TestPredicateBuilder(t *testing.T) {
	t.Run("empty builder yields empty expression", func(t *testing.T) {
		assert.Equal(t, "", NewPredicateBuilder().Build())
	})

	t.Run("conditions joined with and", func(t *testing.T) {
		expr := NewPredicateBuilder().
			GteInt64("review_score", 70).
			LteInt64("release_year", 2020).
			EqBool("is_free", true).
			Build()
		assert.Equal(t, `review_score >= 70 && release_year <= 2020 && is_free == true`, expr)
	})

	t.Run("not in quotes and escapes values", func(t *testing.T) {
		expr := NewPredicateBuilder().
			NotIn("id", []string{`app"42`, "  ", "app-7"}).
			Build()
		assert.Equal(t, `id not in ["app\"42", "app-7"]`, expr)
	})

	t.Run("not in skips empty set", func(t *testing.T) {
		assert.Equal(t, "", NewPredicateBuilder().NotIn("id", nil).Build())
		assert.Equal(t, "", NewPredicateBuilder().NotIn("id", []string{" ", ""}).Build())
	})

	t.Run("any like wraps tokens in delimiters", func(t *testing.T) {
		expr := NewPredicateBuilder().
			AnyLike("genres_text", []string{"Action", "Indie"}).
			Build()
		assert.Equal(t, `(genres_text like "%|action|%" || genres_text like "%|indie|%")`, expr)
	})

	t.Run("any like single token has no parens", func(t *testing.T) {
		expr := NewPredicateBuilder().AnyLike("genres_text", []string{"RPG"}).Build()
		assert.Equal(t, `genres_text like "%|rpg|%"`, expr)
	})

	t.Run("any like strips wildcards and delimiters", func(t *testing.T) {
		expr := NewPredicateBuilder().
			AnyLike("genres_text", []string{`ac%ti_on"|`, "   "}).
			Build()
		assert.Equal(t, `genres_text like "%|action|%"`, expr)
	})
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteString("plain"))
	assert.Equal(t, `"a\"b"`, quoteString(`a"b`))
	assert.Equal(t, `"a\\b"`, quoteString(`a\b`))
	assert.Equal(t, `"a\nb"`, quoteString("a\nb"))
}

func TestGenresText(t *testing.T) {
	assert.Equal(t, "|action|indie|", GenresText([]string{"Action", " Indie "}))
	assert.Equal(t, "", GenresText(nil))
	assert.Equal(t, "", GenresText([]string{"  ", ""}))
}

func TestBuildGameFilter(t *testing.T) {
	t.Run("no filters no exclusions", func(t *testing.T) {
		assert.Equal(t, "", buildGameFilter(&discovery.Filters{}, nil))
	})

	t.Run("full filter set", func(t *testing.T) {
		f := &discovery.Filters{
			MinReviewScore: 80,
			MinReviews:     100,
			MaxReviews:     50000,
			YearFrom:       2015,
			YearTo:         2023,
			FreeOnly:       true,
			Genres:         []string{"Action"},
		}
		expr := buildGameFilter(f, []string{"app-1", "app-2"})
		assert.Equal(t,
			`review_score >= 80 && review_count >= 100 && review_count <= 50000 && `+
				`release_year >= 2015 && release_year <= 2023 && is_free == true && `+
				`genres_text like "%|action|%" && id not in ["app-1", "app-2"]`,
			expr)
	})

	t.Run("zero values are not filtered", func(t *testing.T) {
		f := &discovery.Filters{MinReviewScore: 0, YearFrom: 0, FreeOnly: false}
		assert.Equal(t, "", buildGameFilter(f, nil))
	})
}

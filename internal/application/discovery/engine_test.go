package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
	apperrors "github.com/kaleckh/steam-recs-sub001/pkg/errors"
)

// ---- 测试桩 ----

type stubClassifier struct {
	analysis       *IntentAnalysis
	err            error
	gotQuery       string
	gotRefinements []string
}

func (s *stubClassifier) Classify(_ context.Context, query string, refinements []string) (*IntentAnalysis, error) {
	s.gotQuery = query
	s.gotRefinements = refinements
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

type stubSelector struct {
	picks    []RankedPick
	err      error
	gotQuery string
	gotLimit int
	called   bool
}

func (s *stubSelector) Select(_ context.Context, query string, _ []Candidate, limit int) ([]RankedPick, error) {
	s.called = true
	s.gotQuery = query
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.picks, nil
}

type stubDescriber struct {
	description string
	err         error
	gotName     string
}

func (s *stubDescriber) Describe(_ context.Context, gameName string) (string, error) {
	s.gotName = gameName
	if s.err != nil {
		return "", s.err
	}
	return s.description, nil
}

type stubIndex struct {
	candidates []Candidate
	searchErr  error
	vectors    map[string][]float32
	lastSearch *VectorSearchParams
}

func (s *stubIndex) Search(_ context.Context, params *VectorSearchParams) ([]Candidate, error) {
	s.lastSearch = params
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return append([]Candidate(nil), s.candidates...), nil
}

func (s *stubIndex) GetVector(_ context.Context, gameID string) ([]float32, error) {
	if vec, ok := s.vectors[gameID]; ok {
		return vec, nil
	}
	return nil, ErrVectorNotFound
}

type stubGames struct {
	// exact 精确名称匹配结果；byName 子串匹配窗口（两者独立，模拟不同查询路径）
	exact    *entity.Game
	exactErr error
	byName   []*entity.Game
	err      error
}

func (s *stubGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	for _, g := range s.byName {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, nil
}

func (s *stubGames) GetByName(_ context.Context, name string) (*entity.Game, error) {
	if s.exactErr != nil {
		return nil, s.exactErr
	}
	if s.exact != nil {
		return s.exact, nil
	}
	// 未显式配置时在窗口内做精确查找，保持与真实实现一致的语义
	var best *entity.Game
	for _, g := range s.byName {
		if strings.EqualFold(g.Name, name) {
			if best == nil || g.ReviewCount > best.ReviewCount {
				best = g
			}
		}
	}
	return best, nil
}

func (s *stubGames) SearchByName(_ context.Context, _ string, _ int) ([]*entity.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byName, nil
}

type stubProfiles struct {
	profile    *entity.UserProfile
	owned      []string
	excluded   []string
	profileErr error
	listErr    error
}

func (s *stubProfiles) GetProfile(_ context.Context, _ string) (*entity.UserProfile, error) {
	return s.profile, s.profileErr
}

func (s *stubProfiles) ListOwnedGameIDs(_ context.Context, _ string) ([]string, error) {
	return s.owned, s.listErr
}

func (s *stubProfiles) ListExcludedGameIDs(_ context.Context, _ string) ([]string, error) {
	return s.excluded, s.listErr
}

type stubEmbedder struct {
	vector   []float64
	err      error
	gotTexts []string
}

func (s *stubEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	s.gotTexts = append(s.gotTexts, texts...)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

// ---- 组装 ----

type engineFixture struct {
	classifier *stubClassifier
	selector   *stubSelector
	describer  *stubDescriber
	index      *stubIndex
	games      *stubGames
	profiles   *stubProfiles
	embedder   *stubEmbedder
	engine     *Engine
}

func newEngineFixture(opts Options) *engineFixture {
	f := &engineFixture{
		classifier: &stubClassifier{analysis: FallbackAnalysis("placeholder")},
		selector:   &stubSelector{err: ErrUnparsableSelection},
		describer:  &stubDescriber{description: UnknownGameSentinel},
		index:      &stubIndex{vectors: map[string][]float32{}},
		games:      &stubGames{},
		profiles:   &stubProfiles{},
		embedder:   &stubEmbedder{vector: []float64{0.1, 0.2, 0.3}},
	}
	resolver := NewResolver(f.games, f.index, f.describer, f.embedder)
	f.engine = NewEngine(f.classifier, f.selector, resolver, f.games, f.profiles, f.index, opts)
	return f
}

func rankedCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		d := float64(i) / 10
		out[i] = Candidate{
			ID:         fmt.Sprintf("g%d", i+1),
			Name:       fmt.Sprintf("Game %d", i+1),
			Distance:   d,
			Similarity: SimilarityFromDistance(d),
		}
	}
	return out
}

// ---- 对话式路径 ----

func TestEngineSearchAI_SpecificGame(t *testing.T) {
	f := newEngineFixture(Options{})
	f.classifier.analysis = &IntentAnalysis{
		Type:              IntentSpecificGame,
		GameName:          "Hades",
		SearchDescription: "fast-paced roguelike with strong narrative",
		FollowUpQuestions: genericFollowUps,
	}
	f.games.byName = []*entity.Game{{ID: "hades-1", Name: "Hades", ReviewCount: 200000}}
	f.index.vectors["hades-1"] = []float32{0.5, 0.5, 0.5}
	f.index.candidates = rankedCandidates(3)
	f.selector.err = nil
	f.selector.picks = []RankedPick{
		{GameID: "g2", Reason: "Same frantic combat loop"},
		{GameID: "g1", Reason: ""},
	}

	res, err := f.engine.Search(context.Background(), &SearchRequest{
		Query:      "games like Hades",
		SearchType: SearchTypeAI,
	})
	require.NoError(t, err)

	// 复用已存向量，命中条目自排除
	require.NotNil(t, f.index.lastSearch)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, f.index.lastSearch.Vector)
	assert.Contains(t, f.index.lastSearch.ExcludeIDs, "hades-1")
	assert.True(t, res.Analysis.MatchedInDB)
	assert.Equal(t, "Hades", res.Analysis.GameName)

	// 精选顺序即呈现顺序，空理由给默认文案
	require.Len(t, res.Selections, 2)
	assert.Equal(t, "g2", res.Selections[0].Candidate.ID)
	assert.Equal(t, 1, res.Selections[0].Rank)
	assert.Equal(t, "Same frantic combat loop", res.Selections[0].Reason)
	assert.Equal(t, "Closely matches your search", res.Selections[1].Reason)

	require.NotNil(t, res.Conversation)
	assert.Equal(t, 1, res.Conversation.Round)
	assert.True(t, res.Conversation.CanRefine)
	assert.Len(t, res.Conversation.FollowUpQuestions, followUpCount)
}

func TestEngineSearchAI_UnknownTitleFallsBackToDescription(t *testing.T) {
	f := newEngineFixture(Options{})
	f.classifier.analysis = &IntentAnalysis{
		Type:              IntentSpecificGame,
		GameName:          "Obscure Indie Title",
		SearchDescription: "a narrative puzzle game about memory",
		FollowUpQuestions: genericFollowUps,
	}
	// 目录未收录，描述合成也不认识
	f.games.byName = nil
	f.describer.description = UnknownGameSentinel
	f.index.candidates = rankedCandidates(2)

	res, err := f.engine.Search(context.Background(), &SearchRequest{Query: "games like Obscure Indie Title"})
	require.NoError(t, err)

	assert.Equal(t, "Obscure Indie Title", f.describer.gotName)
	assert.Equal(t, []string{"a narrative puzzle game about memory"}, f.embedder.gotTexts)
	assert.False(t, res.Analysis.MatchedInDB)
	assert.Empty(t, f.index.lastSearch.ExcludeIDs)
}

func TestEngineSearchAI_SynthesizedDescriptionPreferred(t *testing.T) {
	f := newEngineFixture(Options{})
	f.classifier.analysis = &IntentAnalysis{
		Type:              IntentSpecificGame,
		GameName:          "Dusk Harbor",
		SearchDescription: "generic description",
	}
	f.describer.description = "A quiet fishing-town exploration game with light crafting."
	f.index.candidates = rankedCandidates(1)

	_, err := f.engine.Search(context.Background(), &SearchRequest{Query: "games like Dusk Harbor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A quiet fishing-town exploration game with light crafting."}, f.embedder.gotTexts)
}

func TestEngineSearchAI_ClassifierFailureUsesFallback(t *testing.T) {
	f := newEngineFixture(Options{})
	f.classifier.err = errors.New("model unavailable")
	f.index.candidates = rankedCandidates(3)
	f.selector.err = ErrUnparsableSelection

	res, err := f.engine.Search(context.Background(), &SearchRequest{Query: "relaxing puzzle games"})
	require.NoError(t, err)

	// 降级分析：原文即搜索描述，精选失败退回相似度序
	assert.Equal(t, IntentClearIntent, res.Analysis.Type)
	assert.Equal(t, "relaxing puzzle games", res.Analysis.SearchDescription)
	require.Len(t, res.Selections, 3)
	assert.Equal(t, "g1", res.Selections[0].Candidate.ID)
	assert.Equal(t, "Closely matches your search", res.Selections[0].Reason)
}

func TestEngineSearchAI_ContextCancellationIsNotMasked(t *testing.T) {
	f := newEngineFixture(Options{})
	f.classifier.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.Search(ctx, &SearchRequest{Query: "anything"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineSearchAI_EmbeddingFailureIsFatal(t *testing.T) {
	f := newEngineFixture(Options{})
	f.embedder.err = errors.New("provider down")

	_, err := f.engine.Search(context.Background(), &SearchRequest{Query: "co-op roguelikes"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeEmbeddingFailed, apperrors.AsAppError(err).Code)
}

func TestEngineSearchAI_RetrievalFailureIsFatal(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.searchErr = errors.New("index offline")

	_, err := f.engine.Search(context.Background(), &SearchRequest{Query: "co-op roguelikes"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
}

func TestEngineSearchAI_RefinementAdvancesConversation(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = rankedCandidates(1)

	prev := &ConversationState{Version: stateVersion, OriginalQuery: "cozy farming sims", Round: 1}
	res, err := f.engine.Search(context.Background(), &SearchRequest{
		Context:    prev,
		Refinement: "with co-op",
	})
	require.NoError(t, err)

	assert.Equal(t, "cozy farming sims with co-op", f.classifier.gotQuery)
	assert.Equal(t, []string{"with co-op"}, f.classifier.gotRefinements)
	require.NotNil(t, res.Conversation)
	assert.Equal(t, 2, res.Conversation.Round)
	assert.True(t, res.Conversation.CanRefine)
	assert.Equal(t, []string{"with co-op"}, res.Conversation.Context.Refinements)
}

func TestEngineSearchAI_FinalRoundSuppressesFollowUps(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = rankedCandidates(1)

	prev := &ConversationState{
		Version:       stateVersion,
		OriginalQuery: "cozy farming sims",
		Refinements:   []string{"with co-op"},
		Round:         2,
	}
	res, err := f.engine.Search(context.Background(), &SearchRequest{
		Context:    prev,
		Refinement: "on a budget",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Conversation)
	assert.Equal(t, 3, res.Conversation.Round)
	assert.False(t, res.Conversation.CanRefine)
	assert.Empty(t, res.Conversation.FollowUpQuestions)
}

func TestEngineSearchAI_InvalidTokenStartsFresh(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = rankedCandidates(1)

	bad := &ConversationState{Version: 99, OriginalQuery: "old query", Round: 2}
	res, err := f.engine.Search(context.Background(), &SearchRequest{
		Query:   "tactical shooters",
		Context: bad,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conversation.Round)
	assert.Equal(t, "tactical shooters", res.Conversation.Context.OriginalQuery)
}

func TestEngineSearchAI_UserExclusionsAreBestEffort(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = rankedCandidates(1)
	f.profiles.owned = []string{"owned-1"}
	f.profiles.excluded = []string{"hidden-1", "owned-1"}

	_, err := f.engine.Search(context.Background(), &SearchRequest{Query: "roguelikes", UserID: "u1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owned-1", "hidden-1"}, f.index.lastSearch.ExcludeIDs)

	// 档案查询失败不终止请求，只是不排除
	f.profiles.listErr = errors.New("db down")
	_, err = f.engine.Search(context.Background(), &SearchRequest{Query: "roguelikes", UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, f.index.lastSearch.ExcludeIDs)
}

// ---- 其余路径 ----

func TestEngineSearch_Validation(t *testing.T) {
	f := newEngineFixture(Options{})

	for _, req := range []*SearchRequest{
		{Query: "   ", SearchType: SearchTypeBasic},
		{Query: "", SearchType: SearchTypeSemantic},
		{Query: "", SearchType: SearchTypeAI}, // 无续传令牌
	} {
		_, err := f.engine.Search(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
	}

	_, err := f.engine.Search(context.Background(), &SearchRequest{Query: "x", SearchType: "fuzzy"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestEngineSearchBasic(t *testing.T) {
	f := newEngineFixture(Options{})
	f.games.byName = []*entity.Game{
		{ID: "1", Name: "Portal", ReviewCount: 900},
		{ID: "2", Name: "Portal 2", ReviewCount: 800},
	}

	res, err := f.engine.Search(context.Background(), &SearchRequest{Query: "portal", SearchType: SearchTypeBasic})
	require.NoError(t, err)
	require.Len(t, res.Selections, 2)
	assert.Equal(t, "Portal", res.Selections[0].Candidate.Name)
	assert.Equal(t, "Name matches your search", res.Selections[0].Reason)
	assert.Nil(t, res.Conversation)
	// 名称查找不触达向量层
	assert.Nil(t, f.index.lastSearch)
	assert.Empty(t, f.embedder.gotTexts)
}

func TestEngineSearchSemantic(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = rankedCandidates(2)

	res, err := f.engine.Search(context.Background(), &SearchRequest{
		Query:      "atmospheric exploration",
		SearchType: SearchTypeSemantic,
	})
	require.NoError(t, err)

	// 原文直接嵌入，不经过分类与精选
	assert.Equal(t, []string{"atmospheric exploration"}, f.embedder.gotTexts)
	assert.False(t, f.selector.called)
	require.Len(t, res.Selections, 2)
	assert.Equal(t, "Semantically similar to your search", res.Selections[0].Reason)
}

func TestEngineSearch_ResultCap(t *testing.T) {
	f := newEngineFixture(Options{ResultLimitCap: 15})
	f.index.candidates = rankedCandidates(30)
	f.selector.err = ErrUnparsableSelection

	res, err := f.engine.Search(context.Background(), &SearchRequest{Query: "anything", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, res.Selections, 15)

	res, err = f.engine.Search(context.Background(), &SearchRequest{Query: "anything", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, res.Selections, 5)
}

func TestEngineSearchAI_PopularityFilterApplied(t *testing.T) {
	f := newEngineFixture(Options{})
	f.index.candidates = []Candidate{
		{ID: "big", ReviewCount: 100000, Distance: 0.1, Similarity: 0.95},
		{ID: "small", ReviewCount: 200, Distance: 0.2, Similarity: 0.9},
	}
	f.selector.err = ErrUnparsableSelection

	pop := 100
	res, err := f.engine.Search(context.Background(), &SearchRequest{Query: "shooters", Popularity: &pop})
	require.NoError(t, err)
	require.Len(t, res.Selections, 1)
	assert.Equal(t, "big", res.Selections[0].Candidate.ID)
}

// ---- 个性化推荐 ----

func TestEngineRecommend(t *testing.T) {
	t.Run("requires user id", func(t *testing.T) {
		f := newEngineFixture(Options{})
		_, err := f.engine.Recommend(context.Background(), &RecommendRequest{})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
	})

	t.Run("missing profile is fatal", func(t *testing.T) {
		f := newEngineFixture(Options{})
		_, err := f.engine.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeProfileNotFound, apperrors.AsAppError(err).Code)
	})

	t.Run("profile without vectors is fatal", func(t *testing.T) {
		f := newEngineFixture(Options{})
		f.profiles.profile = &entity.UserProfile{UserID: "u1"}
		_, err := f.engine.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeProfileNotFound, apperrors.AsAppError(err).Code)
	})

	t.Run("learned vector preferred over baseline", func(t *testing.T) {
		f := newEngineFixture(Options{})
		f.profiles.profile = &entity.UserProfile{
			UserID:         "u1",
			BaselineVector: entity.Vector{0.1, 0.1},
			LearnedVector:  entity.Vector{0.9, 0.9},
		}
		f.profiles.owned = []string{"owned-1"}
		f.profiles.excluded = []string{"hidden-1"}
		f.index.candidates = rankedCandidates(2)

		res, err := f.engine.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
		require.NoError(t, err)

		assert.Equal(t, []float32{0.9, 0.9}, f.index.lastSearch.Vector)
		assert.ElementsMatch(t, []string{"owned-1", "hidden-1"}, f.index.lastSearch.ExcludeIDs)
		// 个性化路径不经过精选
		assert.False(t, f.selector.called)
		require.Len(t, res.Selections, 2)
		assert.Equal(t, "Matches your library and play history", res.Selections[0].Reason)
	})

	t.Run("baseline vector when nothing learned", func(t *testing.T) {
		f := newEngineFixture(Options{})
		f.profiles.profile = &entity.UserProfile{
			UserID:         "u1",
			BaselineVector: entity.Vector{0.2, 0.3},
		}
		f.index.candidates = rankedCandidates(1)

		_, err := f.engine.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
		require.NoError(t, err)
		assert.Equal(t, []float32{0.2, 0.3}, f.index.lastSearch.Vector)
	})
}

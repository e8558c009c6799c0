// Package discovery 实现对话式游戏发现管线：
// 意图分类 → 向量解析 → 近邻召回 → 流行度曲线 → 相关性精选。
package discovery

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/repository"
	apperrors "github.com/kaleckh/steam-recs-sub001/pkg/errors"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
	"github.com/kaleckh/steam-recs-sub001/pkg/metrics"
)

var tracer = otel.Tracer("discovery")

// defaultPopularity 未给出流行度偏好时的中性值
const defaultPopularity = 50

// Options 管线参数
type Options struct {
	// CandidateLimit 召回候选上限（默认 50）
	CandidateLimit int
	// ResultLimitCap 最终返回条数上限（默认 15）
	ResultLimitCap int
	// MaxRounds 对话最大轮数（默认 3）
	MaxRounds int
}

func (o Options) withDefaults() Options {
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 50
	}
	if o.ResultLimitCap <= 0 {
		o.ResultLimitCap = 15
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = 3
	}
	return o
}

// Engine 发现管线编排器。各阶段顺序执行：
// 生成式阶段（分类、精选）失败时走确定性降级，
// 嵌入与召回失败则终止整个请求。
type Engine struct {
	classifier Classifier
	selector   Selector
	resolver   *Resolver
	retriever  *Retriever
	conv       *ConversationManager
	composer   *PreferenceComposer
	games      repository.GameRepository

	resultCap int
}

// NewEngine 创建发现管线
func NewEngine(
	classifier Classifier,
	selector Selector,
	resolver *Resolver,
	games repository.GameRepository,
	profiles repository.ProfileRepository,
	index VectorIndex,
	opts Options,
) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		classifier: classifier,
		selector:   selector,
		resolver:   resolver,
		retriever:  NewRetriever(index, opts.CandidateLimit),
		conv:       NewConversationManager(opts.MaxRounds),
		composer:   NewPreferenceComposer(profiles),
		games:      games,
		resultCap:  opts.ResultLimitCap,
	}
}

// Search 执行一次搜索请求，按 SearchType 走不同路径
func (e *Engine) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "discovery.search")
	defer span.End()

	searchType := req.SearchType
	if searchType == "" {
		searchType = SearchTypeAI
	}
	span.SetAttributes(attribute.String("search.type", string(searchType)))

	query := strings.TrimSpace(req.Query)
	if query == "" && (searchType != SearchTypeAI || req.Context == nil) {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "query must not be empty")
	}

	start := time.Now()
	var (
		result *SearchResult
		err    error
	)
	switch searchType {
	case SearchTypeBasic:
		result, err = e.searchBasic(ctx, query, e.resultLimit(req.Limit))
	case SearchTypeSemantic:
		result, err = e.searchSemantic(ctx, query, req)
	case SearchTypeAI:
		result, err = e.searchAI(ctx, query, req)
	default:
		return nil, apperrors.New(apperrors.CodeInvalidParam, "unknown search type").WithDetail(string(searchType))
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchTotal.WithLabelValues(string(searchType), status).Inc()
	metrics.SearchDuration.WithLabelValues(string(searchType)).Observe(time.Since(start).Seconds())
	return result, err
}

// Recommend 个性化推荐：偏好向量召回，无查询文本，不经过精选阶段
func (e *Engine) Recommend(ctx context.Context, req *RecommendRequest) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "discovery.recommend")
	defer span.End()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "userId must not be empty")
	}

	start := time.Now()
	vec, excludes, err := e.composer.Compose(ctx, req.UserID)
	if err != nil {
		metrics.SearchTotal.WithLabelValues("recommend", "error").Inc()
		return nil, err
	}

	candidates, err := e.retriever.Retrieve(ctx, vec, req.Filters, excludes)
	if err != nil {
		metrics.SearchTotal.WithLabelValues("recommend", "error").Inc()
		return nil, err
	}
	candidates = ApplyPopularityCurve(candidates, popularityOf(req.Popularity))

	selections := takeBySimilarity(candidates, e.resultLimit(req.Limit), "Matches your library and play history")
	metrics.SearchTotal.WithLabelValues("recommend", "success").Inc()
	metrics.SearchDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())

	return &SearchResult{
		Selections: selections,
		Analysis: Analysis{
			Type:              IntentClearIntent,
			SearchDescription: "personalized recommendations from your preference profile",
		},
	}, nil
}

// searchBasic 纯目录名称查找，不触达向量层
func (e *Engine) searchBasic(ctx context.Context, query string, limit int) (*SearchResult, error) {
	games, err := e.games.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "name search failed")
	}

	selections := make([]Selection, 0, len(games))
	for i, g := range games {
		selections = append(selections, Selection{
			Candidate: Candidate{
				ID:               g.ID,
				Name:             g.Name,
				Genres:           g.Genres,
				Tags:             g.Tags,
				Categories:       g.Categories,
				ReviewScore:      g.ReviewScore,
				ReviewCount:      g.ReviewCount,
				ReleaseYear:      g.ReleaseYear,
				Price:            g.Price,
				IsFree:           g.IsFree,
				ShortDescription: g.ShortDescription,
			},
			Reason: "Name matches your search",
			Rank:   i + 1,
		})
	}
	return &SearchResult{
		Selections: selections,
		Analysis:   Analysis{Type: IntentClearIntent, SearchDescription: query},
	}, nil
}

// searchSemantic 原文直接嵌入后召回，跳过分类与精选
func (e *Engine) searchSemantic(ctx context.Context, query string, req *SearchRequest) (*SearchResult, error) {
	vec, err := e.resolver.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	excludes := e.userExclusions(ctx, req.UserID)
	candidates, err := e.retriever.Retrieve(ctx, vec, req.Filters, excludes)
	if err != nil {
		return nil, err
	}
	candidates = ApplyPopularityCurve(candidates, popularityOf(req.Popularity))

	return &SearchResult{
		Selections: takeBySimilarity(candidates, e.resultLimit(req.Limit), "Semantically similar to your search"),
		Analysis:   Analysis{Type: IntentClearIntent, SearchDescription: query},
	}, nil
}

// searchAI 完整对话式管线
func (e *Engine) searchAI(ctx context.Context, query string, req *SearchRequest) (*SearchResult, error) {
	// 1. 对话状态：令牌非法时重置为新对话（不致命）
	state, reset := e.conv.Resume(req.Context, req.Refinement, query)
	if reset {
		logger.Warn(ctx, "conversation token invalid, starting fresh")
		metrics.PipelineFallbacks.WithLabelValues("conversation").Inc()
	}
	effective := e.conv.EffectiveQuery(&state)
	if effective == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "query must not be empty")
	}

	// 2. 意图分类：失败走确定性降级（不致命）
	analysis, err := e.classifier.Classify(ctx, effective, state.Refinements)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(ctx, "classification failed, using fallback analysis", "error", err)
		metrics.PipelineFallbacks.WithLabelValues("classify").Inc()
		analysis = FallbackAnalysis(effective)
	}

	// 3. 向量解析：嵌入失败致命
	vec, matched, err := e.resolver.Resolve(ctx, analysis, effective)
	if err != nil {
		return nil, err
	}

	// 4. 排除集：用户相关排除 + 命中条目自排除
	excludes := e.userExclusions(ctx, req.UserID)
	if matched != nil {
		excludes = append(excludes, matched.ID)
	}

	// 5. 召回：失败致命
	candidates, err := e.retriever.Retrieve(ctx, vec, req.Filters, excludes)
	if err != nil {
		return nil, err
	}

	// 6. 流行度曲线
	candidates = ApplyPopularityCurve(candidates, popularityOf(req.Popularity))

	// 7. 精选：失败走相似度序降级（不致命）
	limit := e.resultLimit(req.Limit)
	selections := e.selectWithFallback(ctx, effective, candidates, limit)

	out := &SearchResult{
		Selections: selections,
		Analysis: Analysis{
			Type:              analysis.Type,
			GameName:          analysis.GameName,
			MatchedInDB:       matched != nil,
			SearchDescription: analysis.SearchDescription,
		},
		Conversation: &ConversationResult{
			Round:     state.Round,
			MaxRounds: e.conv.MaxRounds(),
			CanRefine: e.conv.CanRefine(&state),
			Context:   state,
		},
	}
	if out.Conversation.CanRefine {
		out.Conversation.FollowUpQuestions = analysis.FollowUpQuestions
	}
	return out, nil
}

// selectWithFallback 精选失败或全部指向未知候选时退回相似度顺序
func (e *Engine) selectWithFallback(ctx context.Context, query string, candidates []Candidate, limit int) []Selection {
	picks, err := e.selector.Select(ctx, query, candidates, limit)
	if err != nil {
		logger.Warn(ctx, "selection failed, falling back to similarity order", "error", err)
		metrics.PipelineFallbacks.WithLabelValues("select").Inc()
		return takeBySimilarity(candidates, limit, "Closely matches your search")
	}

	byID := make(map[string]*Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	selections := make([]Selection, 0, len(picks))
	for _, p := range picks {
		c, ok := byID[p.GameID]
		if !ok {
			continue
		}
		reason := p.Reason
		if reason == "" {
			reason = "Closely matches your search"
		}
		selections = append(selections, Selection{
			Candidate: *c,
			Reason:    reason,
			Rank:      len(selections) + 1,
		})
		if len(selections) == limit {
			break
		}
	}
	return selections
}

// userExclusions 查询路径上的用户排除集是尽力而为的：
// 档案缺失或查询失败不终止请求，只是少排除一些结果。
func (e *Engine) userExclusions(ctx context.Context, userID string) []string {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	excludes, err := e.composer.Exclusions(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "failed to compose user exclusions", "user_id", userID, "error", err)
		return nil
	}
	return excludes
}

// resultLimit 请求条数与全局上限取小，非法值取上限
func (e *Engine) resultLimit(requested int) int {
	if requested <= 0 || requested > e.resultCap {
		return e.resultCap
	}
	return requested
}

func popularityOf(p *int) int {
	if p == nil {
		return defaultPopularity
	}
	return *p
}

// takeBySimilarity 按当前顺序截取前 limit 条并编号
func takeBySimilarity(candidates []Candidate, limit int, reason string) []Selection {
	if limit > len(candidates) {
		limit = len(candidates)
	}
	selections := make([]Selection, 0, limit)
	for i := 0; i < limit; i++ {
		selections = append(selections, Selection{
			Candidate: candidates[i],
			Reason:    reason,
			Rank:      i + 1,
		})
	}
	return selections
}

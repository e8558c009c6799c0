package discovery

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
	"github.com/kaleckh/steam-recs-sub001/internal/domain/repository"
	apperrors "github.com/kaleckh/steam-recs-sub001/pkg/errors"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
)

// nameMatchLimit 名称匹配时从目录取回的最大条数
const nameMatchLimit = 20

// Resolver 把意图分类结果解析为一个查询向量。
//
// specific_game 意图优先复用语料中已存的向量；目录未收录或缺向量时，
// 退回"合成描述再嵌入"；描述合成不认识该游戏时，退回分类给出的搜索描述。
// 只有最终嵌入失败才是致命错误。
type Resolver struct {
	games     repository.GameRepository
	index     VectorIndex
	describer Describer
	embedder  embedding.Embedder
}

// NewResolver 创建向量解析器
func NewResolver(games repository.GameRepository, index VectorIndex, describer Describer, embedder embedding.Embedder) *Resolver {
	return &Resolver{games: games, index: index, describer: describer, embedder: embedder}
}

// Resolve 返回查询向量，以及命中的目录条目（未命中为 nil）
func (r *Resolver) Resolve(ctx context.Context, analysis *IntentAnalysis, effectiveQuery string) ([]float32, *entity.Game, error) {
	ctx, span := tracer.Start(ctx, "discovery.resolve_vector")
	defer span.End()

	if analysis.Type == IntentSpecificGame && analysis.GameName != "" {
		if matched := r.lookupByName(ctx, analysis.GameName); matched != nil {
			vec, err := r.index.GetVector(ctx, matched.ID)
			if err == nil && len(vec) > 0 {
				span.SetAttributes(attribute.String("resolve.source", "stored_vector"))
				return vec, matched, nil
			}
			if err != nil && !errors.Is(err, ErrVectorNotFound) {
				logger.Warn(ctx, "stored vector unavailable, falling back to description",
					"game_id", matched.ID, "error", err)
			}
		}

		// 目录未收录或缺向量：让模型合成描述
		text := analysis.SearchDescription
		desc, err := r.describer.Describe(ctx, analysis.GameName)
		if err != nil {
			logger.Warn(ctx, "describe failed, using search description", "error", err)
		} else if desc != UnknownGameSentinel {
			text = desc
		}
		if strings.TrimSpace(text) == "" {
			text = effectiveQuery
		}
		span.SetAttributes(attribute.String("resolve.source", "synthesized"))
		vec, err := r.embedQuery(ctx, text)
		return vec, nil, err
	}

	text := analysis.SearchDescription
	if strings.TrimSpace(text) == "" {
		text = effectiveQuery
	}
	span.SetAttributes(attribute.String("resolve.source", "description"))
	vec, err := r.embedQuery(ctx, text)
	return vec, nil, err
}

// lookupByName 在目录中做名称匹配：精确 > 前缀 > 子串，评测数降序打平。
// 精确匹配单独查询：子串窗口按评测数截断，精确命中可能被挤出窗口。
func (r *Resolver) lookupByName(ctx context.Context, name string) *entity.Game {
	exact, err := r.games.GetByName(ctx, name)
	if err != nil {
		logger.Warn(ctx, "exact name lookup failed", "error", err)
	} else if exact != nil {
		return exact
	}

	matches, err := r.games.SearchByName(ctx, name, nameMatchLimit)
	if err != nil {
		// 目录查询失败按未命中处理，让解析走合成路径
		logger.Warn(ctx, "name lookup failed", "error", err)
		return nil
	}
	return BestNameMatch(name, matches)
}

// BestNameMatch 从候选中挑出与目标名称最匹配的一条
func BestNameMatch(name string, games []*entity.Game) *entity.Game {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" || len(games) == 0 {
		return nil
	}

	type scored struct {
		game  *entity.Game
		score int
	}
	ranked := make([]scored, 0, len(games))
	for _, g := range games {
		lower := strings.ToLower(g.Name)
		var s int
		switch {
		case lower == target:
			s = 3
		case strings.HasPrefix(lower, target):
			s = 2
		case strings.Contains(lower, target):
			s = 1
		default:
			continue
		}
		ranked = append(ranked, scored{game: g, score: s})
	}
	if len(ranked) == 0 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].game.ReviewCount > ranked[j].game.ReviewCount
	})
	return ranked[0].game
}

// embedQuery 嵌入查询文本，失败是管线的致命错误
func (r *Resolver) embedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := r.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingFailed, "failed to embed query")
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, apperrors.New(apperrors.CodeEmbeddingFailed, "embedding provider returned no vector")
	}
	vec := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}

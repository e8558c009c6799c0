package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
	"github.com/kaleckh/steam-recs-sub001/pkg/metrics"
)

// defaultSearchEf HNSW 检索参数
const defaultSearchEf = 128

// GameIndex 游戏语料向量索引，实现 discovery.VectorIndex
type GameIndex struct {
	client    *Client
	dimension int
}

// NewGameIndex 创建游戏向量索引
func NewGameIndex(client *Client, dimension int) *GameIndex {
	return &GameIndex{client: client, dimension: dimension}
}

var _ discovery.VectorIndex = (*GameIndex)(nil)

// Search 余弦近邻检索。Milvus 的 COSINE 打分是相似度（越大越近），
// 这里换算为余弦距离（[0,2]，越小越近），返回结果按距离升序。
func (g *GameIndex) Search(ctx context.Context, params *discovery.VectorSearchParams) ([]discovery.Candidate, error) {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchGames",
		trace.WithAttributes(
			attribute.Int("top_k", params.Limit),
			attribute.Int("exclude_count", len(params.ExcludeIDs)),
		))
	defer span.End()

	collName := g.client.CollectionName(CollectionGames)
	filter := buildGameFilter(&params.Filters, params.ExcludeIDs)

	sp, err := entity.NewIndexHNSWSearchParam(defaultSearchEf)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := g.client.milvus.Search(ctx,
		collName,
		nil,
		filter,
		[]string{
			"id", "name", "review_score", "review_count", "release_year",
			"price", "is_free", "genres_json", "tags_json", "categories_json",
			"short_description",
		},
		[]entity.Vector{entity.FloatVector(params.Vector)},
		"vector",
		entity.COSINE,
		params.Limit,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(CollectionGames).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(CollectionGames, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search games: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(CollectionGames, "success").Inc()

	var candidates []discovery.Candidate
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			c := discovery.Candidate{
				// COSINE 相似度 ∈ [-1,1]，距离 = 1 - 相似度
				Distance: float64(1 - result.Scores[i]),
			}

			if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				c.ID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("name").(*entity.ColumnVarChar); ok {
				c.Name = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("review_score").(*entity.ColumnInt64); ok {
				c.ReviewScore = int(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("review_count").(*entity.ColumnInt64); ok {
				c.ReviewCount = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("release_year").(*entity.ColumnInt64); ok {
				c.ReleaseYear = int(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("price").(*entity.ColumnDouble); ok {
				c.Price = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("is_free").(*entity.ColumnBool); ok {
				c.IsFree = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("genres_json").(*entity.ColumnVarChar); ok {
				c.Genres = decodeStringList(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("tags_json").(*entity.ColumnVarChar); ok {
				c.Tags = decodeStringList(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("categories_json").(*entity.ColumnVarChar); ok {
				c.Categories = decodeStringList(col.Data()[i])
			}
			if col, ok := result.Fields.GetColumn("short_description").(*entity.ColumnVarChar); ok {
				c.ShortDescription = col.Data()[i]
			}

			candidates = append(candidates, c)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(candidates)))
	return candidates, nil
}

// GetVector 取某个游戏的已存向量
func (g *GameIndex) GetVector(ctx context.Context, gameID string) ([]float32, error) {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.GetGameVector",
		trace.WithAttributes(attribute.String("game_id", gameID)))
	defer span.End()

	collName := g.client.CollectionName(CollectionGames)
	expr := fmt.Sprintf("id == %s", quoteString(gameID))

	rs, err := g.client.milvus.Query(ctx, collName, nil, expr, []string{"vector"})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query vector: %w", err)
	}

	col, ok := rs.GetColumn("vector").(*entity.ColumnFloatVector)
	if !ok || col.Len() == 0 {
		return nil, discovery.ErrVectorNotFound
	}
	return col.Data()[0], nil
}

// buildGameFilter 把应用层过滤条件编译为 Milvus 标量表达式
func buildGameFilter(f *discovery.Filters, excludeIDs []string) string {
	b := NewPredicateBuilder()
	if f.MinReviewScore > 0 {
		b.GteInt64("review_score", int64(f.MinReviewScore))
	}
	if f.MinReviews > 0 {
		b.GteInt64("review_count", f.MinReviews)
	}
	if f.MaxReviews > 0 {
		b.LteInt64("review_count", f.MaxReviews)
	}
	if f.YearFrom > 0 {
		b.GteInt64("release_year", int64(f.YearFrom))
	}
	if f.YearTo > 0 {
		b.LteInt64("release_year", int64(f.YearTo))
	}
	if f.FreeOnly {
		b.EqBool("is_free", true)
	}
	b.AnyLike("genres_text", f.Genres)
	b.NotIn("id", excludeIDs)
	return b.Build()
}

// InsertGames 批量写入游戏语料（离线构建与增量更新共用）
func (g *GameIndex) InsertGames(ctx context.Context, docs []*GameDocument) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertGames",
		trace.WithAttributes(attribute.Int("count", len(docs))))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}

	collName := g.client.CollectionName(CollectionGames)

	ids := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	names := make([]string, len(docs))
	reviewScores := make([]int64, len(docs))
	reviewCounts := make([]int64, len(docs))
	releaseYears := make([]int64, len(docs))
	prices := make([]float64, len(docs))
	isFree := make([]bool, len(docs))
	genresText := make([]string, len(docs))
	genresJSON := make([]string, len(docs))
	tagsJSON := make([]string, len(docs))
	categoriesJSON := make([]string, len(docs))
	descriptions := make([]string, len(docs))

	for i, d := range docs {
		ids[i] = d.ID
		vectors[i] = d.Vector
		names[i] = d.Name
		reviewScores[i] = d.ReviewScore
		reviewCounts[i] = d.ReviewCount
		releaseYears[i] = d.ReleaseYear
		prices[i] = d.Price
		isFree[i] = d.IsFree
		genresText[i] = GenresText(d.Genres)
		genresJSON[i] = encodeStringList(d.Genres)
		tagsJSON[i] = encodeStringList(d.Tags)
		categoriesJSON[i] = encodeStringList(d.Categories)
		descriptions[i] = d.ShortDescription
	}

	_, err := g.client.milvus.Insert(ctx, collName, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", g.dimension, vectors),
		entity.NewColumnVarChar("name", names),
		entity.NewColumnInt64("review_score", reviewScores),
		entity.NewColumnInt64("review_count", reviewCounts),
		entity.NewColumnInt64("release_year", releaseYears),
		entity.NewColumnDouble("price", prices),
		entity.NewColumnBool("is_free", isFree),
		entity.NewColumnVarChar("genres_text", genresText),
		entity.NewColumnVarChar("genres_json", genresJSON),
		entity.NewColumnVarChar("tags_json", tagsJSON),
		entity.NewColumnVarChar("categories_json", categoriesJSON),
		entity.NewColumnVarChar("short_description", descriptions),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert games: %w", err)
	}
	return nil
}

// CreateIndex 为向量列创建 HNSW 索引
func (g *GameIndex) CreateIndex(ctx context.Context) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", CollectionGames)))
	defer span.End()

	collName := g.client.CollectionName(CollectionGames)

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		g.client.config.HNSWM,
		g.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := g.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// EnsureGamesCollection 确保 games 集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (g *GameIndex) EnsureGamesCollection(ctx context.Context) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := g.client.HasCollection(ctx, CollectionGames)
	if err != nil {
		return err
	}
	if !exists {
		schema := GamesSchema(g.dimension)
		schema.CollectionName = g.client.CollectionName(schema.CollectionName)
		if err := g.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		// 新建集合时创建索引；若失败，允许后续由运维介入。
		_ = g.CreateIndex(ctx)
	}

	return g.client.LoadCollection(ctx, CollectionGames)
}

func encodeStringList(vs []string) string {
	if len(vs) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(vs)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var vs []string
	if err := json.Unmarshal([]byte(raw), &vs); err != nil {
		return nil
	}
	return vs
}

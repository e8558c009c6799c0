// Package main 语料索引构建入口：读取游戏清单，写入目录库并构建向量索引。
// 离线运行，检索服务只读其产物。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kaleckh/steam-recs-sub001/internal/config"
	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/embedding"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/persistence/milvus"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/persistence/postgres"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
)

// gameInput 清单文件中的单条游戏记录
type gameInput struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	Genres           []string `json:"genres"`
	Tags             []string `json:"tags"`
	Categories       []string `json:"categories"`
	ReviewScore      int      `json:"review_score"`
	ReviewCount      int64    `json:"review_count"`
	ReleaseYear      int      `json:"release_year"`
	Price            float64  `json:"price"`
	IsFree           bool     `json:"is_free"`
	// EmbeddingText 可选的嵌入文本；缺省时由名称、类型与描述拼装
	EmbeddingText string `json:"embedding_text,omitempty"`
}

func main() {
	input := flag.String("input", "", "path to the games manifest (JSON array)")
	batchSize := flag.Int("batch", 64, "embedding and insert batch size")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	if *input == "" {
		logger.Fatal(ctx, "missing -input flag", nil)
	}
	if *batchSize <= 0 {
		*batchSize = 64
	}

	games, err := loadManifest(*input)
	if err != nil {
		logger.Fatal(ctx, "failed to load manifest", err, "path", *input)
	}
	logger.Info(ctx, "manifest loaded", "path", *input, "count", len(games))

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	gameIndex := milvus.NewGameIndex(milvusClient, cfg.Embedding.Dimension)
	if err := gameIndex.EnsureGamesCollection(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure games collection", err)
	}

	embedder, err := embedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}

	gameRepo := postgres.NewGameRepo(pgClient)

	indexed := 0
	for start := 0; start < len(games); start += *batchSize {
		end := start + *batchSize
		if end > len(games) {
			end = len(games)
		}
		batch := games[start:end]

		texts := make([]string, len(batch))
		for i, g := range batch {
			texts[i] = embeddingText(g)
		}
		vectors, err := embedder.EmbedStrings(ctx, texts)
		if err != nil {
			logger.Fatal(ctx, "failed to embed batch", err, "offset", start)
		}
		if len(vectors) != len(batch) {
			logger.Fatal(ctx, "embedding count mismatch", nil,
				"want", len(batch), "got", len(vectors))
		}

		rows := make([]*entity.Game, len(batch))
		docs := make([]*milvus.GameDocument, len(batch))
		for i, g := range batch {
			vec := make([]float32, len(vectors[i]))
			for j, v := range vectors[i] {
				vec[j] = float32(v)
			}
			rows[i] = &entity.Game{
				ID:               g.ID,
				Name:             g.Name,
				ShortDescription: g.ShortDescription,
				Genres:           g.Genres,
				Tags:             g.Tags,
				Categories:       g.Categories,
				ReviewScore:      g.ReviewScore,
				ReviewCount:      g.ReviewCount,
				ReleaseYear:      g.ReleaseYear,
				Price:            g.Price,
				IsFree:           g.IsFree,
				HasEmbedding:     true,
			}
			docs[i] = &milvus.GameDocument{
				ID:               g.ID,
				Vector:           vec,
				Name:             g.Name,
				ReviewScore:      int64(g.ReviewScore),
				ReviewCount:      g.ReviewCount,
				ReleaseYear:      int64(g.ReleaseYear),
				Price:            g.Price,
				IsFree:           g.IsFree,
				Genres:           g.Genres,
				Tags:             g.Tags,
				Categories:       g.Categories,
				ShortDescription: g.ShortDescription,
			}
		}

		if err := gameRepo.UpsertGames(ctx, rows); err != nil {
			logger.Fatal(ctx, "failed to upsert catalog rows", err, "offset", start)
		}
		if err := gameIndex.InsertGames(ctx, docs); err != nil {
			logger.Fatal(ctx, "failed to insert vectors", err, "offset", start)
		}

		indexed += len(batch)
		logger.Info(ctx, "batch indexed", "indexed", indexed, "total", len(games))
	}

	logger.Info(ctx, "corpus indexing complete", "count", indexed)
}

// loadManifest 读取并解析清单文件，过滤掉缺 ID 或名称的记录
func loadManifest(path string) ([]*gameInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var games []*gameInput
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	valid := games[:0]
	for _, g := range games {
		if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Name) == "" {
			continue
		}
		valid = append(valid, g)
	}
	return valid, nil
}

// embeddingText 生成单条游戏的嵌入文本
func embeddingText(g *gameInput) string {
	if t := strings.TrimSpace(g.EmbeddingText); t != "" {
		return t
	}
	var sb strings.Builder
	sb.WriteString(g.Name)
	if len(g.Genres) > 0 {
		sb.WriteString(". Genres: ")
		sb.WriteString(strings.Join(g.Genres, ", "))
	}
	if len(g.Tags) > 0 {
		sb.WriteString(". Tags: ")
		sb.WriteString(strings.Join(g.Tags, ", "))
	}
	if d := strings.TrimSpace(g.ShortDescription); d != "" {
		sb.WriteString(". ")
		sb.WriteString(d)
	}
	return sb.String()
}

package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/kaleckh/steam-recs-sub001/internal/config"
)

// NewEmbedder 按配置选择 Embedding 实现
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewEinoEmbedder(ctx, cfg)
	case "http":
		return NewHTTPClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

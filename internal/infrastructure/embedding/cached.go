package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/kaleckh/steam-recs-sub001/pkg/metrics"
)

// VectorCache 查询向量缓存的最小依赖（redis.Cache 满足该接口）
type VectorCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// CachedEmbedder 带缓存的 Embedder 装饰器。
// 查询向量按文本哈希缓存；缓存故障只记录指标，不影响嵌入结果。
type CachedEmbedder struct {
	inner embedding.Embedder
	cache VectorCache
	model string
	ttl   time.Duration
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder 创建带缓存的 Embedder
func NewCachedEmbedder(inner embedding.Embedder, cache VectorCache, model string, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedEmbedder{inner: inner, cache: cache, model: model, ttl: ttl}
}

// EmbedStrings 单条文本走缓存，批量文本直接透传
func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if c.cache == nil || len(texts) != 1 {
		return c.inner.EmbedStrings(ctx, texts, opts...)
	}

	key := c.cacheKey(texts[0])
	loaded := false
	raw, err := c.cache.GetOrLoadSafe(ctx, key, c.ttl, func() (interface{}, error) {
		loaded = true
		metrics.EmbeddingCacheHits.WithLabelValues("miss").Inc()
		vectors, err := c.inner.EmbedStrings(ctx, texts, opts...)
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("unexpected embedding count: %d", len(vectors))
		}
		return vectors[0], nil
	})
	if err != nil {
		// 提供方调用已经发生并失败：原样上抛，不做第二次调用
		if loaded {
			return nil, err
		}
		// 缓存层故障（未走到加载函数）时退回直连
		metrics.EmbeddingCacheHits.WithLabelValues("error").Inc()
		return c.inner.EmbedStrings(ctx, texts, opts...)
	}
	if !loaded {
		metrics.EmbeddingCacheHits.WithLabelValues("hit").Inc()
	}

	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return c.inner.EmbedStrings(ctx, texts, opts...)
	}
	return [][]float64{vec}, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", c.model, hex.EncodeToString(sum[:]))
}

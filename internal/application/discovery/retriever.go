package discovery

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kaleckh/steam-recs-sub001/pkg/errors"
)

// Retriever 执行带过滤与排除的向量近邻召回
type Retriever struct {
	index          VectorIndex
	candidateLimit int
}

// NewRetriever 创建召回器，candidateLimit 非法时取 50
func NewRetriever(index VectorIndex, candidateLimit int) *Retriever {
	if candidateLimit <= 0 {
		candidateLimit = 50
	}
	return &Retriever{index: index, candidateLimit: candidateLimit}
}

// Retrieve 召回候选集：按余弦距离升序，补全相似度。
// 召回失败是管线的致命错误。
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, filters Filters, excludeIDs []string) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "discovery.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.Int("exclude.count", len(excludeIDs)),
		attribute.Int("limit", r.candidateLimit),
	)

	candidates, err := r.index.Search(ctx, &VectorSearchParams{
		Vector:     vector,
		Limit:      r.candidateLimit,
		ExcludeIDs: excludeIDs,
		Filters:    filters,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "vector retrieval failed")
	}

	for i := range candidates {
		candidates[i].Similarity = SimilarityFromDistance(candidates[i].Distance)
	}
	span.SetAttributes(attribute.Int("candidate.count", len(candidates)))
	return candidates, nil
}

package discovery

import "context"

// Classifier 定义意图分类能力（port），由基础设施层的生成式模型实现。
// 输出不可解析时必须返回 ErrUnparsableIntent，以便管线走确定性降级。
type Classifier interface {
	Classify(ctx context.Context, query string, refinements []string) (*IntentAnalysis, error)
}

// Describer 定义游戏描述合成能力（port）。
// 模型不认识该游戏时返回 UnknownGameSentinel。
type Describer interface {
	Describe(ctx context.Context, gameName string) (string, error)
}

// RankedPick 精选结果中的单项
type RankedPick struct {
	GameID string `json:"id"`
	Reason string `json:"reason"`
}

// Selector 定义相关性精选能力（port）。
// 返回顺序即最终呈现顺序；输出不可解析时必须返回 ErrUnparsableSelection。
type Selector interface {
	Select(ctx context.Context, query string, candidates []Candidate, limit int) ([]RankedPick, error)
}

// VectorSearchParams 向量检索参数
type VectorSearchParams struct {
	Vector     []float32
	Limit      int
	ExcludeIDs []string
	Filters    Filters
}

// VectorIndex 定义应用层对"语料向量索引"的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorIndex interface {
	// Search 余弦距离检索，结果按距离升序；没有向量的条目不会出现在结果中
	Search(ctx context.Context, params *VectorSearchParams) ([]Candidate, error)
	// GetVector 取某个游戏的已存向量，不存在时返回 ErrVectorNotFound
	GetVector(ctx context.Context, gameID string) ([]float32, error)
}

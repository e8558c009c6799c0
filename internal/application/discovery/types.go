package discovery

// IntentType 查询意图类型
type IntentType string

// 意图取值
const (
	IntentSpecificGame IntentType = "specific_game"
	IntentClearIntent  IntentType = "clear_intent"
	IntentVague        IntentType = "vague"
)

// FollowUpQuestion 单个追问及其候选回答
type FollowUpQuestion struct {
	Question         string   `json:"question"`
	SuggestedAnswers []string `json:"suggestedAnswers"`
}

// IntentAnalysis 意图分类结果
type IntentAnalysis struct {
	Type              IntentType         `json:"type"`
	GameName          string             `json:"gameName"`
	SearchDescription string             `json:"searchDescription"`
	Confidence        int                `json:"confidence"`
	FollowUpQuestions []FollowUpQuestion `json:"followUpQuestions"`
}

// Filters 候选召回的过滤条件
type Filters struct {
	// MinReviewScore 最低好评率（0-100），0 表示不过滤
	MinReviewScore int
	// MinReviews / MaxReviews 评测数区间，0 表示不过滤
	MinReviews int64
	MaxReviews int64
	// YearFrom / YearTo 发行年份区间，0 表示不过滤
	YearFrom int
	YearTo   int
	// FreeOnly 仅免费游戏
	FreeOnly bool
	// Genres 类型归属过滤（任一匹配即可）
	Genres []string
}

// Candidate 单次检索中召回的候选游戏，仅在请求内存活
type Candidate struct {
	ID               string
	Name             string
	Genres           []string
	Tags             []string
	Categories       []string
	ReviewScore      int
	ReviewCount      int64
	ReleaseYear      int
	Price            float64
	IsFree           bool
	ShortDescription string

	// Distance 余弦距离（[0,2]，越小越相似）
	Distance float64
	// Similarity 由距离换算的相似度（[0,1]）
	Similarity float64
}

// SimilarityFromDistance 余弦距离换算相似度：similarity = 1 - distance/2
func SimilarityFromDistance(d float64) float64 {
	s := 1 - d/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Selection 最终入选结果：候选 + 一句话理由 + 呈现顺位
type Selection struct {
	Candidate Candidate
	Reason    string
	Rank      int
}

// ConversationState 对话续传令牌
// 状态不落服务端，由调用方在下一次请求中原样回传（外加一条新的精化回答）。
type ConversationState struct {
	Version       int      `json:"v"`
	OriginalQuery string   `json:"originalQuery"`
	Refinements   []string `json:"refinements"`
	Round         int      `json:"round"`
}

// SearchType 搜索路径
type SearchType string

// 搜索路径取值
const (
	SearchTypeBasic    SearchType = "basic"
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeAI       SearchType = "ai"
)

// SearchRequest 发现管线输入
type SearchRequest struct {
	Query      string
	SearchType SearchType
	Limit      int
	UserID     string
	// Popularity 流行度偏好（0-100，50 为中性），nil 时取 50
	Popularity *int
	Filters    Filters
	// Context 上一轮返回的续传令牌
	Context *ConversationState
	// Refinement 对上一轮追问的回答
	Refinement string
}

// Analysis 返回给调用方的意图概要
type Analysis struct {
	Type              IntentType `json:"type"`
	GameName          string     `json:"gameName,omitempty"`
	MatchedInDB       bool       `json:"matchedInDb"`
	SearchDescription string     `json:"searchDescription"`
}

// ConversationResult 本轮对话状态输出
type ConversationResult struct {
	Round             int                `json:"round"`
	MaxRounds         int                `json:"maxRounds"`
	CanRefine         bool               `json:"canRefine"`
	FollowUpQuestions []FollowUpQuestion `json:"followUpQuestions"`
	Context           ConversationState  `json:"context"`
}

// SearchResult 发现管线输出
type SearchResult struct {
	Selections   []Selection
	Analysis     Analysis
	Conversation *ConversationResult
}

// RecommendRequest 个性化推荐输入
type RecommendRequest struct {
	UserID     string
	Limit      int
	Popularity *int
	Filters    Filters
}

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
	"github.com/kaleckh/steam-recs-sub001/pkg/metrics"
)

// followUpCount 每轮固定返回的追问数量
const followUpCount = 3

// genericFollowUps 分类降级时使用的通用追问
var genericFollowUps = []FollowUpQuestion{
	{
		Question:         "What kind of gameplay are you in the mood for?",
		SuggestedAnswers: []string{"Action", "Strategy", "Story-driven", "Relaxing"},
	},
	{
		Question:         "Do you prefer single-player or playing with others?",
		SuggestedAnswers: []string{"Single-player", "Co-op", "Competitive multiplayer"},
	},
	{
		Question:         "How much time do you usually have per session?",
		SuggestedAnswers: []string{"Short sessions", "An hour or two", "Long marathons"},
	},
}

// EinoClassifier 基于 ChatModel 的意图分类实现
type EinoClassifier struct {
	factory  ChatModelFactory
	provider string
}

// NewEinoClassifier 创建意图分类器
func NewEinoClassifier(factory ChatModelFactory, provider string) *EinoClassifier {
	return &EinoClassifier{factory: factory, provider: provider}
}

// Classify 对查询做意图分类。模型输出不可解析时返回 ErrUnparsableIntent，
// 由调用方决定降级，本方法不做兜底。
func (c *EinoClassifier) Classify(ctx context.Context, query string, refinements []string) (*IntentAnalysis, error) {
	ctx, span := tracer.Start(ctx, "discovery.classify")
	defer span.End()
	span.SetAttributes(attribute.Int("refinement.count", len(refinements)))

	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return nil, fmt.Errorf("get chat model: %w", err)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(classifySystemPrompt),
		schema.UserMessage(buildClassifyPrompt(query, refinements)),
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, msgs)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallDuration.WithLabelValues(c.provider, "classify").Observe(time.Since(start).Seconds())
	metrics.LLMCallTotal.WithLabelValues(c.provider, "classify", status).Inc()
	if err != nil {
		return nil, fmt.Errorf("classify generate: %w", err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, ErrUnparsableIntent
	}

	analysis, err := parseIntentAnalysis(outMsg.Content)
	if err != nil {
		logger.Warn(ctx, "classifier output rejected", "error", err)
		return nil, ErrUnparsableIntent
	}
	return analysis, nil
}

// parseIntentAnalysis 解析并校验模型输出，追问会被规整到固定数量
func parseIntentAnalysis(content string) (*IntentAnalysis, error) {
	raw := extractJSONValue(content)

	var analysis IntentAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	switch analysis.Type {
	case IntentSpecificGame, IntentClearIntent, IntentVague:
	default:
		return nil, fmt.Errorf("unknown intent type %q", analysis.Type)
	}

	analysis.GameName = strings.TrimSpace(analysis.GameName)
	analysis.SearchDescription = strings.TrimSpace(analysis.SearchDescription)
	if analysis.Type == IntentSpecificGame && analysis.GameName == "" {
		return nil, fmt.Errorf("specific_game intent without game name")
	}
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 100 {
		analysis.Confidence = 100
	}
	analysis.FollowUpQuestions = sanitizeFollowUps(analysis.FollowUpQuestions)
	return &analysis, nil
}

// sanitizeFollowUps 追问规整：去掉平台类问题、回答数压到 2-4，
// 不足时用通用追问补齐到固定数量。
func sanitizeFollowUps(in []FollowUpQuestion) []FollowUpQuestion {
	out := make([]FollowUpQuestion, 0, followUpCount)
	for _, q := range in {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || mentionsPlatform(q.Question) {
			continue
		}
		answers := make([]string, 0, 4)
		for _, a := range q.SuggestedAnswers {
			if a = strings.TrimSpace(a); a != "" {
				answers = append(answers, a)
			}
			if len(answers) == 4 {
				break
			}
		}
		if len(answers) < 2 {
			continue
		}
		q.SuggestedAnswers = answers
		out = append(out, q)
		if len(out) == followUpCount {
			return out
		}
	}
	for _, q := range genericFollowUps {
		if len(out) == followUpCount {
			break
		}
		if containsQuestion(out, q.Question) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func mentionsPlatform(q string) bool {
	lower := strings.ToLower(q)
	for _, w := range []string{"platform", "windows", "mac", "linux", "console", "pc or", "steam deck", "operating system"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func containsQuestion(qs []FollowUpQuestion, question string) bool {
	for _, q := range qs {
		if strings.EqualFold(q.Question, question) {
			return true
		}
	}
	return false
}

// FallbackAnalysis 分类失败时的确定性降级：
// 把整段查询当作搜索描述，按 clear_intent 处理并给出通用追问。
func FallbackAnalysis(query string) *IntentAnalysis {
	return &IntentAnalysis{
		Type:              IntentClearIntent,
		SearchDescription: strings.TrimSpace(query),
		Confidence:        0,
		FollowUpQuestions: append([]FollowUpQuestion(nil), genericFollowUps...),
	}
}

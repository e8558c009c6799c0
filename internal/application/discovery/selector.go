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

// EinoSelector 基于 ChatModel 的相关性精选实现
type EinoSelector struct {
	factory  ChatModelFactory
	provider string
}

// NewEinoSelector 创建精选器
func NewEinoSelector(factory ChatModelFactory, provider string) *EinoSelector {
	return &EinoSelector{factory: factory, provider: provider}
}

// Select 让模型从候选集中挑选并排序最贴合请求的条目。
// 输出不可解析或全部指向未知 id 时返回 ErrUnparsableSelection。
func (s *EinoSelector) Select(ctx context.Context, query string, candidates []Candidate, limit int) ([]RankedPick, error) {
	ctx, span := tracer.Start(ctx, "discovery.select")
	defer span.End()
	span.SetAttributes(attribute.Int("candidate.count", len(candidates)))

	if len(candidates) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = len(candidates)
	}

	chatModel, err := s.factory.Get(ctx, s.provider)
	if err != nil {
		return nil, fmt.Errorf("get chat model: %w", err)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(selectSystemPrompt, limit)),
		schema.UserMessage(buildSelectPrompt(query, candidates)),
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, msgs)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallDuration.WithLabelValues(s.provider, "select").Observe(time.Since(start).Seconds())
	metrics.LLMCallTotal.WithLabelValues(s.provider, "select", status).Inc()
	if err != nil {
		return nil, fmt.Errorf("select generate: %w", err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, ErrUnparsableSelection
	}

	picks, err := parseSelection(outMsg.Content, candidates, limit)
	if err != nil {
		logger.Warn(ctx, "selector output rejected", "error", err)
		return nil, ErrUnparsableSelection
	}
	return picks, nil
}

// parseSelection 解析模型输出并只保留指向真实候选的条目，重复 id 取首次出现
func parseSelection(content string, candidates []Candidate, limit int) ([]RankedPick, error) {
	raw := extractJSONValue(content)

	var picks []RankedPick
	if err := json.Unmarshal([]byte(raw), &picks); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	if len(picks) == 0 {
		return nil, fmt.Errorf("empty selection")
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	seen := make(map[string]bool, len(picks))
	out := make([]RankedPick, 0, limit)
	for _, p := range picks {
		p.GameID = strings.TrimSpace(p.GameID)
		p.Reason = strings.TrimSpace(p.Reason)
		if p.GameID == "" || !known[p.GameID] || seen[p.GameID] {
			continue
		}
		seen[p.GameID] = true
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("selection references no known candidate")
	}
	return out, nil
}

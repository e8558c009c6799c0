package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/kaleckh/steam-recs-sub001/pkg/metrics"
)

// EinoDescriber 基于 ChatModel 的游戏描述合成实现
type EinoDescriber struct {
	factory  ChatModelFactory
	provider string
}

// NewEinoDescriber 创建描述合成器
func NewEinoDescriber(factory ChatModelFactory, provider string) *EinoDescriber {
	return &EinoDescriber{factory: factory, provider: provider}
}

// Describe 为语料未收录的游戏名合成一段可嵌入的描述。
// 模型不认识该游戏时返回 UnknownGameSentinel。
func (d *EinoDescriber) Describe(ctx context.Context, gameName string) (string, error) {
	ctx, span := tracer.Start(ctx, "discovery.describe")
	defer span.End()

	chatModel, err := d.factory.Get(ctx, d.provider)
	if err != nil {
		return "", fmt.Errorf("get chat model: %w", err)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(describeSystemPrompt),
		schema.UserMessage(gameName),
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, msgs)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallDuration.WithLabelValues(d.provider, "describe").Observe(time.Since(start).Seconds())
	metrics.LLMCallTotal.WithLabelValues(d.provider, "describe", status).Inc()
	if err != nil {
		return "", fmt.Errorf("describe generate: %w", err)
	}
	if outMsg == nil {
		return UnknownGameSentinel, nil
	}

	content := strings.TrimSpace(outMsg.Content)
	if content == "" || strings.EqualFold(content, UnknownGameSentinel) {
		return UnknownGameSentinel, nil
	}
	return content, nil
}

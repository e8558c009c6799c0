package discovery

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 按提供方名称获取 ChatModel，name 为空时返回默认客户端
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

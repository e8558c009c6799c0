// Package repository 定义领域仓储接口
package repository

import (
	"context"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
)

// GameRepository 游戏目录仓储
type GameRepository interface {
	// GetByID 按 ID 获取游戏，不存在时返回 nil
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	// GetByName 按名称精确匹配（大小写不敏感），同名取评测数最高的一条，不存在时返回 nil
	GetByName(ctx context.Context, name string) (*entity.Game, error)
	// SearchByName 按名称模糊查找（大小写不敏感的子串匹配），按评测数降序
	SearchByName(ctx context.Context, name string, limit int) ([]*entity.Game, error)
}

// ProfileRepository 用户偏好档案仓储
type ProfileRepository interface {
	// GetProfile 获取用户档案，不存在时返回 nil
	GetProfile(ctx context.Context, userID string) (*entity.UserProfile, error)
	// ListOwnedGameIDs 列出用户已拥有的游戏 ID
	ListOwnedGameIDs(ctx context.Context, userID string) ([]string, error)
	// ListExcludedGameIDs 列出用户标记为不感兴趣/隐藏的游戏 ID
	ListExcludedGameIDs(ctx context.Context, userID string) ([]string, error)
}

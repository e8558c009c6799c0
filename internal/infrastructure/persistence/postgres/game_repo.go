package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
	"github.com/kaleckh/steam-recs-sub001/internal/domain/repository"
)

// GameRepo 游戏目录仓储实现
type GameRepo struct {
	client *Client
}

// NewGameRepo 创建游戏目录仓储
func NewGameRepo(client *Client) *GameRepo {
	return &GameRepo{client: client}
}

var _ repository.GameRepository = (*GameRepo)(nil)

// GetByID 按 ID 获取游戏，不存在时返回 nil
func (r *GameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	ctx, span := tracer.Start(ctx, "postgres.GetGameByID",
		trace.WithAttributes(attribute.String("game_id", id)))
	defer span.End()

	var game entity.Game
	err := r.client.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// GetByName 大小写不敏感的名称精确匹配，同名取评测数最高的一条。
// 子串匹配有召回窗口，热门同词条目多时精确命中可能挤不进窗口，
// 所以精确查找单独走索引。
func (r *GameRepo) GetByName(ctx context.Context, name string) (*entity.Game, error) {
	ctx, span := tracer.Start(ctx, "postgres.GetGameByName",
		trace.WithAttributes(attribute.String("name", name)))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var game entity.Game
	err := r.client.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Order("review_count DESC").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get game by name: %w", err)
	}
	return &game, nil
}

// SearchByName 大小写不敏感的名称子串匹配，按评测数降序
func (r *GameRepo) SearchByName(ctx context.Context, name string, limit int) ([]*entity.Game, error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchGamesByName",
		trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var games []*entity.Game
	err := r.client.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+escapeLike(name)+"%").
		Order("review_count DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search games: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(games)))
	return games, nil
}

// UpsertGames 批量写入游戏目录（离线导入用）
func (r *GameRepo) UpsertGames(ctx context.Context, games []*entity.Game) error {
	ctx, span := tracer.Start(ctx, "postgres.UpsertGames",
		trace.WithAttributes(attribute.Int("count", len(games))))
	defer span.End()

	if len(games) == 0 {
		return nil
	}
	err := r.client.db.WithContext(ctx).Save(games).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert games: %w", err)
	}
	return nil
}

// escapeLike 转义 LIKE 模式中的通配符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

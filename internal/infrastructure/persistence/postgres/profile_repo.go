package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/entity"
	"github.com/kaleckh/steam-recs-sub001/internal/domain/repository"
)

// ProfileRepo 用户偏好档案仓储实现
type ProfileRepo struct {
	client *Client
}

// NewProfileRepo 创建档案仓储
func NewProfileRepo(client *Client) *ProfileRepo {
	return &ProfileRepo{client: client}
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// GetProfile 获取用户档案，不存在时返回 nil
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*entity.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "postgres.GetProfile",
		trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	var profile entity.UserProfile
	err := r.client.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// ListOwnedGameIDs 列出用户已拥有的游戏 ID
func (r *ProfileRepo) ListOwnedGameIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.ListOwnedGameIDs",
		trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	var ids []string
	err := r.client.db.WithContext(ctx).
		Model(&entity.UserGame{}).
		Where("user_id = ?", userID).
		Pluck("game_id", &ids).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list owned games: %w", err)
	}
	return ids, nil
}

// ListExcludedGameIDs 列出用户标记为不感兴趣/隐藏的游戏 ID
func (r *ProfileRepo) ListExcludedGameIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.ListExcludedGameIDs",
		trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	var ids []string
	err := r.client.db.WithContext(ctx).
		Model(&entity.GameFeedback{}).
		Where("user_id = ? AND type IN ?", userID,
			[]string{string(entity.FeedbackNotInterested), string(entity.FeedbackHidden)}).
		Distinct().
		Pluck("game_id", &ids).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list excluded games: %w", err)
	}
	return ids, nil
}

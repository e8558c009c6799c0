package discovery

import (
	"context"

	"github.com/kaleckh/steam-recs-sub001/internal/domain/repository"
	apperrors "github.com/kaleckh/steam-recs-sub001/pkg/errors"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
)

// PreferenceComposer 把用户档案组装为检索输入：
// 偏好向量（优先学习向量，其次基线向量）加上排除集（已拥有 ∪ 主动排除）。
type PreferenceComposer struct {
	profiles repository.ProfileRepository
}

// NewPreferenceComposer 创建偏好组装器
func NewPreferenceComposer(profiles repository.ProfileRepository) *PreferenceComposer {
	return &PreferenceComposer{profiles: profiles}
}

// Compose 返回偏好向量与排除 ID 集。档案不存在或没有任何向量时返回
// CodeProfileNotFound 错误（个性化路径的致命错误）。
func (c *PreferenceComposer) Compose(ctx context.Context, userID string) ([]float32, []string, error) {
	profile, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user profile")
	}
	if profile == nil {
		return nil, nil, apperrors.New(apperrors.CodeProfileNotFound, "user profile not found")
	}

	vec := []float32(profile.LearnedVector)
	if len(vec) == 0 {
		vec = []float32(profile.BaselineVector)
	}
	if len(vec) == 0 {
		return nil, nil, apperrors.New(apperrors.CodeProfileNotFound, "user profile has no preference vector")
	}

	excludes, err := c.Exclusions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return vec, excludes, nil
}

// Exclusions 返回去重后的排除 ID 集（已拥有 ∪ 不感兴趣/隐藏）
func (c *PreferenceComposer) Exclusions(ctx context.Context, userID string) ([]string, error) {
	owned, err := c.profiles.ListOwnedGameIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list owned games")
	}
	excluded, err := c.profiles.ListExcludedGameIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list excluded games")
	}

	seen := make(map[string]bool, len(owned)+len(excluded))
	out := make([]string, 0, len(owned)+len(excluded))
	for _, lists := range [][]string{owned, excluded} {
		for _, id := range lists {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	logger.Debug(ctx, "composed exclusion set", "user_id", userID, "count", len(out))
	return out, nil
}

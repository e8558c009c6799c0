package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Vector 以 JSONB 存储的偏好向量
type Vector []float32

// Value 实现 driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	default:
		return fmt.Errorf("unsupported type for Vector: %T", value)
	}
}

// UserProfile 用户偏好档案
// 基线向量来自新手引导的选择，学习向量由离线反馈聚合任务回写；本服务只读。
type UserProfile struct {
	UserID string `gorm:"primaryKey;size:64" json:"user_id"`
	// BaselineVector 基线偏好向量
	BaselineVector Vector `gorm:"type:jsonb" json:"baseline_vector"`
	// LearnedVector 反馈学习向量，可能为空
	LearnedVector Vector    `gorm:"type:jsonb" json:"learned_vector"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// FeedbackType 反馈类型
type FeedbackType string

// 反馈类型取值
const (
	FeedbackLike          FeedbackType = "like"
	FeedbackDislike       FeedbackType = "dislike"
	FeedbackLove          FeedbackType = "love"
	FeedbackNotInterested FeedbackType = "not_interested"
	FeedbackHidden        FeedbackType = "hidden"
)

// GameFeedback 用户对单个游戏的反馈记录
type GameFeedback struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    string       `gorm:"size:64;index:idx_feedback_user_game,priority:1" json:"user_id"`
	GameID    string       `gorm:"size:64;index:idx_feedback_user_game,priority:2" json:"game_id"`
	Type      FeedbackType `gorm:"size:32" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// TableName 指定表名
func (GameFeedback) TableName() string {
	return "game_feedback"
}

// UserGame 用户游戏库记录（已拥有）
type UserGame struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	GameID    string    `gorm:"primaryKey;size:64" json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (UserGame) TableName() string {
	return "user_games"
}

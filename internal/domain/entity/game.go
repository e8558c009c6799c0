// Package entity 定义领域实体
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList 以 JSONB 存储的字符串列表
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Game 游戏条目
// 语料由离线采集管线写入；检索管线只读。
type Game struct {
	ID               string     `gorm:"primaryKey;size:64" json:"id"`
	Name             string     `gorm:"size:256;index" json:"name"`
	ShortDescription string     `gorm:"type:text" json:"short_description"`
	Genres           StringList `gorm:"type:jsonb" json:"genres"`
	Tags             StringList `gorm:"type:jsonb" json:"tags"`
	Categories       StringList `gorm:"type:jsonb" json:"categories"`
	// ReviewScore 好评率（0-100），0 表示未知
	ReviewScore int `json:"review_score"`
	// ReviewCount 评测总数，0 表示没有评测数据
	ReviewCount int64   `json:"review_count"`
	ReleaseYear int     `json:"release_year"`
	Price       float64 `json:"price"`
	IsFree      bool    `json:"is_free"`
	// HasEmbedding 该条目是否已写入向量库
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Game) TableName() string {
	return "games"
}

// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionGames 游戏语料集合
	CollectionGames = "games"
)

// GamesSchema 游戏语料 Collection Schema。
// genres_text 是小写竖线包裹的类型串（例如 "|action|indie|"），
// 供标量过滤用 like 做成员判断；结构化列表另存 JSON 文本列。
func GamesSchema(dimension int) *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionGames,
		Description:    "Game embeddings for semantic discovery",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", dimension),
				},
			},
			{
				Name:     "name",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "review_score",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "review_count",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "release_year",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "price",
				DataType: entity.FieldTypeDouble,
			},
			{
				Name:     "is_free",
				DataType: entity.FieldTypeBool,
			},
			{
				Name:     "genres_text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "genres_json",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "tags_json",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "categories_json",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "short_description",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// GameDocument 游戏语料数据结构
type GameDocument struct {
	ID               string    `json:"id"`
	Vector           []float32 `json:"vector"`
	Name             string    `json:"name"`
	ReviewScore      int64     `json:"review_score"`
	ReviewCount      int64     `json:"review_count"`
	ReleaseYear      int64     `json:"release_year"`
	Price            float64   `json:"price"`
	IsFree           bool      `json:"is_free"`
	Genres           []string  `json:"genres"`
	Tags             []string  `json:"tags"`
	Categories       []string  `json:"categories"`
	ShortDescription string    `json:"short_description"`
}

// GenresText 生成竖线包裹的小写类型串
func GenresText(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('|')
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		sb.WriteString(g)
		sb.WriteByte('|')
	}
	if sb.Len() == 1 {
		return ""
	}
	return sb.String()
}

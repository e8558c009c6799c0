package dto

import (
	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
)

// FiltersRequest 候选过滤条件
type FiltersRequest struct {
	MinReviewScore int      `json:"minReviewScore"`
	MinReviews     int64    `json:"minReviews"`
	MaxReviews     int64    `json:"maxReviews"`
	YearFrom       int      `json:"yearFrom"`
	YearTo         int      `json:"yearTo"`
	FreeOnly       bool     `json:"freeOnly"`
	Genres         []string `json:"genres"`
}

// ConversationContext 对话续传令牌（上一轮响应原样回传）
type ConversationContext struct {
	Version       int      `json:"v"`
	OriginalQuery string   `json:"originalQuery"`
	Refinements   []string `json:"refinements"`
	Round         int      `json:"round"`
}

// SearchRequest 搜索请求体
type SearchRequest struct {
	Query      string               `json:"query"`
	SearchType string               `json:"searchType"`
	Limit      int                  `json:"limit"`
	UserID     string               `json:"userId"`
	Popularity *int                 `json:"popularity"`
	Filters    FiltersRequest       `json:"filters"`
	Context    *ConversationContext `json:"conversationContext"`
	Refinement string               `json:"refinement"`
}

// RecommendRequest 个性化推荐请求体
type RecommendRequest struct {
	UserID     string         `json:"userId" binding:"required"`
	Limit      int            `json:"limit"`
	Popularity *int           `json:"popularity"`
	Filters    FiltersRequest `json:"filters"`
}

// GameResult 单条结果
type GameResult struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Genres           []string `json:"genres,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	ReviewScore      int      `json:"reviewScore"`
	ReviewCount      int64    `json:"reviewCount"`
	ReleaseYear      int      `json:"releaseYear,omitempty"`
	Price            float64  `json:"price"`
	IsFree           bool     `json:"isFree"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Similarity       float64  `json:"similarity"`
	Reason           string   `json:"reason"`
	Rank             int      `json:"rank"`
}

// AnalysisResult 意图概要
type AnalysisResult struct {
	Type              string `json:"type"`
	GameName          string `json:"gameName,omitempty"`
	MatchedInDB       bool   `json:"matchedInDb"`
	SearchDescription string `json:"searchDescription"`
}

// FollowUpQuestion 追问
type FollowUpQuestion struct {
	Question         string   `json:"question"`
	SuggestedAnswers []string `json:"suggestedAnswers"`
}

// ConversationResult 本轮对话状态
type ConversationResult struct {
	Round             int                 `json:"round"`
	MaxRounds         int                 `json:"maxRounds"`
	CanRefine         bool                `json:"canRefine"`
	FollowUpQuestions []FollowUpQuestion  `json:"followUpQuestions,omitempty"`
	Context           ConversationContext `json:"context"`
}

// SearchResponse 搜索响应体
type SearchResponse struct {
	Games        []GameResult        `json:"games"`
	Analysis     AnalysisResult      `json:"analysis"`
	Conversation *ConversationResult `json:"conversation,omitempty"`
}

// ToDiscoveryRequest 转换为应用层搜索请求
func (r *SearchRequest) ToDiscoveryRequest() *discovery.SearchRequest {
	req := &discovery.SearchRequest{
		Query:      r.Query,
		SearchType: discovery.SearchType(r.SearchType),
		Limit:      r.Limit,
		UserID:     r.UserID,
		Popularity: r.Popularity,
		Filters:    r.Filters.toDiscovery(),
		Refinement: r.Refinement,
	}
	if r.Context != nil {
		req.Context = &discovery.ConversationState{
			Version:       r.Context.Version,
			OriginalQuery: r.Context.OriginalQuery,
			Refinements:   r.Context.Refinements,
			Round:         r.Context.Round,
		}
	}
	return req
}

// ToDiscoveryRequest 转换为应用层推荐请求
func (r *RecommendRequest) ToDiscoveryRequest() *discovery.RecommendRequest {
	return &discovery.RecommendRequest{
		UserID:     r.UserID,
		Limit:      r.Limit,
		Popularity: r.Popularity,
		Filters:    r.Filters.toDiscovery(),
	}
}

func (f *FiltersRequest) toDiscovery() discovery.Filters {
	return discovery.Filters{
		MinReviewScore: f.MinReviewScore,
		MinReviews:     f.MinReviews,
		MaxReviews:     f.MaxReviews,
		YearFrom:       f.YearFrom,
		YearTo:         f.YearTo,
		FreeOnly:       f.FreeOnly,
		Genres:         f.Genres,
	}
}

// FromSearchResult 把应用层结果转换为响应体
func FromSearchResult(result *discovery.SearchResult) *SearchResponse {
	resp := &SearchResponse{
		Games: make([]GameResult, 0, len(result.Selections)),
		Analysis: AnalysisResult{
			Type:              string(result.Analysis.Type),
			GameName:          result.Analysis.GameName,
			MatchedInDB:       result.Analysis.MatchedInDB,
			SearchDescription: result.Analysis.SearchDescription,
		},
	}
	for _, s := range result.Selections {
		c := s.Candidate
		resp.Games = append(resp.Games, GameResult{
			ID:               c.ID,
			Name:             c.Name,
			Genres:           c.Genres,
			Tags:             c.Tags,
			Categories:       c.Categories,
			ReviewScore:      c.ReviewScore,
			ReviewCount:      c.ReviewCount,
			ReleaseYear:      c.ReleaseYear,
			Price:            c.Price,
			IsFree:           c.IsFree,
			ShortDescription: c.ShortDescription,
			Similarity:       c.Similarity,
			Reason:           s.Reason,
			Rank:             s.Rank,
		})
	}
	if conv := result.Conversation; conv != nil {
		out := &ConversationResult{
			Round:     conv.Round,
			MaxRounds: conv.MaxRounds,
			CanRefine: conv.CanRefine,
			Context: ConversationContext{
				Version:       conv.Context.Version,
				OriginalQuery: conv.Context.OriginalQuery,
				Refinements:   conv.Context.Refinements,
				Round:         conv.Context.Round,
			},
		}
		for _, q := range conv.FollowUpQuestions {
			out.FollowUpQuestions = append(out.FollowUpQuestions, FollowUpQuestion{
				Question:         q.Question,
				SuggestedAnswers: q.SuggestedAnswers,
			})
		}
		resp.Conversation = out
	}
	return resp
}

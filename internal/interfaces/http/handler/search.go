// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
	"github.com/kaleckh/steam-recs-sub001/internal/interfaces/http/dto"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
)

// SearchHandler 搜索处理器
type SearchHandler struct {
	engine *discovery.Engine
}

// NewSearchHandler 创建搜索处理器
func NewSearchHandler(engine *discovery.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search 搜索接口
// @Summary 游戏搜索
// @Description 按 searchType 走名称查找 / 语义检索 / 对话式 AI 管线
// @Tags Search
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "搜索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Router /v1/search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.Query != "" {
		ctx = logger.WithContext(ctx, logger.QueryKey, req.Query)
	}
	if req.UserID != "" {
		ctx = logger.WithContext(ctx, logger.UserIDKey, req.UserID)
	}

	result, err := h.engine.Search(ctx, req.ToDiscoveryRequest())
	if err != nil {
		logger.Error(ctx, "search failed", err, "search_type", req.SearchType)
		dto.AppError(c, err)
		return
	}

	dto.Success(c, dto.FromSearchResult(result))
}

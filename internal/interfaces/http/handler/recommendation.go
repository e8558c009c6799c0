package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
	"github.com/kaleckh/steam-recs-sub001/internal/interfaces/http/dto"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
)

// RecommendationHandler 个性化推荐处理器
type RecommendationHandler struct {
	engine *discovery.Engine
}

// NewRecommendationHandler 创建推荐处理器
func NewRecommendationHandler(engine *discovery.Engine) *RecommendationHandler {
	return &RecommendationHandler{engine: engine}
}

// Recommend 个性化推荐接口
// @Summary 个性化推荐
// @Description 基于用户偏好向量的推荐，自动排除已拥有与不感兴趣的游戏
// @Tags Search
// @Accept json
// @Produce json
// @Param request body dto.RecommendRequest true "推荐请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Router /v1/recommendations [post]
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req dto.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, req.UserID)

	result, err := h.engine.Recommend(ctx, req.ToDiscoveryRequest())
	if err != nil {
		logger.Error(ctx, "recommendation failed", err)
		dto.AppError(c, err)
		return
	}

	dto.Success(c, dto.FromSearchResult(result))
}

package handler

import (
	"github.com/gin-gonic/gin"
	achievementapp "github.com/taskflow/backend/internal/application/achievement"
)

// AchievementHandler exposes achievement definitions and per-user progress
type AchievementHandler struct {
	BaseHandler
	achievementService *achievementapp.AchievementService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(achievementService *achievementapp.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// List godoc
// @ID           listAchievements
// @Summary      All achievement definitions
// @Tags         achievements
// @Produce      json
// @Success      200 {object} dto.Response{data=[]achievementapp.AchievementResponse}
// @Router       /achievements/all [get]
func (h *AchievementHandler) List(c *gin.Context) {
	all, err := h.achievementService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, all)
}

// Create godoc
// @ID           createAchievement
// @Summary      Define an achievement
// @Description  Admin only. Every existing user starts tracking it at zero progress.
// @Tags         achievements
// @Accept       json
// @Produce      json
// @Param        request body achievementapp.CreateAchievementRequest true "Achievement"
// @Success      201 {object} dto.Response{data=achievementapp.AchievementResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /achievements [post]
func (h *AchievementHandler) Create(c *gin.Context) {
	var req achievementapp.CreateAchievementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.achievementService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// ListMine godoc
// @ID           listMyAchievements
// @Summary      The caller's achievement progress
// @Tags         achievements
// @Produce      json
// @Success      200 {object} dto.Response{data=[]achievementapp.UserAchievementResponse}
// @Router       /user-achievements/me [get]
func (h *AchievementHandler) ListMine(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	mine, err := h.achievementService.ListMine(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mine)
}

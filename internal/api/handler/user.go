package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/api/middleware"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	quotaService *service.QuotaService
}

func NewUserHandler(userService *service.UserService, quotaService *service.QuotaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		quotaService: quotaService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, profile)
}

// GetQuota 获取今日配额
// GET /api/v1/user/quota
func (h *UserHandler) GetQuota(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	quota, err := h.quotaService.GetQuotaInfo(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, quota)
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Analytics 使用统计
// GET /api/v1/admin/analytics
func (h *AdminHandler) Analytics(c *gin.Context) {
	data, err := h.adminService.Analytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, data)
}

// ListUsers 用户列表
// GET /api/v1/admin/users?limit=100
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	users, err := h.adminService.ListUsers(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, users)
}

// UpdateLimit 修改每日上限
// PUT /api/v1/admin/users/:id/limit
func (h *AdminHandler) UpdateLimit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "limit must be between 1 and 1000")
		return
	}

	user, err := h.adminService.UpdateUserLimit(c.Request.Context(), id, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}

// Ban 封禁或解封
// PUT /api/v1/admin/users/:id/ban
func (h *AdminHandler) Ban(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	user, err := h.adminService.ToggleBan(c.Request.Context(), id, *req.Banned)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}

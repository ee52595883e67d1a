package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/api/middleware"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type FlyerHandler struct {
	flyerService *service.FlyerService
}

func NewFlyerHandler(flyerService *service.FlyerService) *FlyerHandler {
	return &FlyerHandler{
		flyerService: flyerService,
	}
}

// Download 渲染并下载海报 PNG
// GET /api/v1/generations/:id/flyer
func (h *FlyerHandler) Download(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	png, fileName, err := h.flyerService.Render(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Attachment(c, fileName, "image/png", png)
}

// Share 创建分享任务，进度通过 WebSocket 推送
// POST /api/v1/generations/:id/share
func (h *FlyerHandler) Share(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.flyerService.Share(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetJob 查询分享任务状态
// GET /api/v1/flyer-jobs/:id
func (h *FlyerHandler) GetJob(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.flyerService.GetJob(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, status)
}

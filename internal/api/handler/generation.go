package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/api/middleware"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type GenerationHandler struct {
	generationService *service.GenerationService
}

func NewGenerationHandler(generationService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
	}
}

// Create 生成今日寄语
// POST /api/v1/generations
func (h *GenerationHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Please provide a topic and a Ramadan day between 1 and 30")
		return
	}

	resp, err := h.generationService.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// List 生成历史
// GET /api/v1/generations?page=1&page_size=20
func (h *GenerationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}

	items, total, err := h.generationService.List(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 单条生成记录
// GET /api/v1/generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.generationService.Get(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, item)
}

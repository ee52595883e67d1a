package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type VerseHandler struct {
	verseService *service.VerseService
}

func NewVerseHandler(verseService *service.VerseService) *VerseHandler {
	return &VerseHandler{verseService: verseService}
}

// Today 今日经文
// GET /api/v1/verse/today
func (h *VerseHandler) Today(c *gin.Context) {
	response.Success(c, h.verseService.Today())
}

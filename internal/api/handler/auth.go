package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login 名字 + PIN 登录，新名字自动注册
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Please enter a name (2-50 characters) and a 4-digit PIN")
		return
	}

	resp, err := h.authService.Login(req.Name, req.Pin)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// AdminLogin 管理员登录
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.AdminLogin(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

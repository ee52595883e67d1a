package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
	"github.com/qs3c/ramadan_bot_server/internal/service"
)

// respondError 把业务错误映射为响应码，未知错误记入 c.Errors 后返回通用提示
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPIN),
		errors.Is(err, service.ErrInvalidTopic),
		errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrInvalidLimit):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrIncorrectPIN),
		errors.Is(err, service.ErrInvalidAdminPassword):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrAdminDisabled):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrUserBanned):
		response.BannedError(c, "")
	case errors.Is(err, service.ErrDailyLimitReached):
		response.QuotaError(c, "Daily limit reached. Try again tomorrow.")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrGenerationNotFound),
		errors.Is(err, service.ErrFlyerJobNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		_ = c.Error(err)
		response.UpstreamError(c, "")
	case errors.Is(err, service.ErrShareUnavailable):
		response.Error(c, response.CodeServerError, err.Error())
	default:
		_ = c.Error(err)
		response.ServerError(c, "")
	}
}

// pathID 解析路径中的正整数 ID
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeSuccess          = 0
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodePermissionDenied = 1002
	CodeResourceNotFound = 1003
	CodeQuotaExceeded    = 1004
	CodeUserBanned       = 1006
	CodeServerError      = 5000
	CodeUpstreamError    = 5002
)

var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "invalid parameters",
	CodeAuthFailed:       "authentication failed",
	CodePermissionDenied: "permission denied",
	CodeResourceNotFound: "resource not found",
	CodeQuotaExceeded:    "daily limit reached",
	CodeUserBanned:       "account is banned",
	CodeServerError:      "internal server error",
	CodeUpstreamError:    "reflection service unavailable, please try again",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// DefaultMessage 返回错误码的默认提示
func DefaultMessage(code int) string {
	return codeMessages[code]
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	Success(c, PageData{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// Error 错误响应，message 为空时使用默认提示
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

func ParamError(c *gin.Context, message string) { Error(c, CodeParamError, message) }

func AuthError(c *gin.Context, message string) { Error(c, CodeAuthFailed, message) }

func PermissionError(c *gin.Context, message string) { Error(c, CodePermissionDenied, message) }

func NotFoundError(c *gin.Context, message string) { Error(c, CodeResourceNotFound, message) }

func QuotaError(c *gin.Context, message string) { Error(c, CodeQuotaExceeded, message) }

func BannedError(c *gin.Context, message string) { Error(c, CodeUserBanned, message) }

func ServerError(c *gin.Context, message string) { Error(c, CodeServerError, message) }

func UpstreamError(c *gin.Context, message string) { Error(c, CodeUpstreamError, message) }

// Attachment 以附件形式返回二进制内容
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

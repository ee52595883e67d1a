package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/jwt"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// Auth JWT 认证中间件
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "session is invalid or expired")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireUser 要求令牌属于一个真实用户（管理员密码令牌没有用户 ID）
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			response.AuthError(c, "please log in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly 仅允许 admin 角色访问，需放在 Auth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != model.RoleAdmin {
			response.PermissionError(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok && id > 0
}

// GetRole 从上下文获取角色
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

package dto

// LoginRequest 登录请求（用户不存在时自动注册）
type LoginRequest struct {
	Name string `json:"name" binding:"required,min=2,max=50"`
	Pin  string `json:"pin" binding:"required,pin"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token   string    `json:"token"`
	User    *UserInfo `json:"user"`
	Created bool      `json:"created"`
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse 管理员登录响应
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// UserInfo 用户信息（返回给前端，不含 PIN）
type UserInfo struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	Streak             int        `json:"streak"`
	GenerationCount    int        `json:"generation_count"`
	LastLogin          string     `json:"last_login,omitempty"`
	LastGenerationDate *string    `json:"last_generation_date"`
	RateLimitOverride  *int       `json:"rate_limit_override"`
	IsBanned           bool       `json:"is_banned"`
	CreatedAt          string     `json:"created_at,omitempty"`
	QuotaInfo          *QuotaInfo `json:"quota_info,omitempty"`
}

// QuotaInfo 每日生成配额
type QuotaInfo struct {
	DailyLimit  int    `json:"daily_limit"`
	DailyUsed   int    `json:"daily_used"`
	DailyRemain int    `json:"daily_remain"`
	Unlimited   bool   `json:"unlimited"`
	ResetAt     string `json:"reset_at"`
}

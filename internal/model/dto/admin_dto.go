package dto

// AnalyticsData 管理后台统计
type AnalyticsData struct {
	TotalUsers        int64              `json:"total_users"`
	TotalGenerations  int64              `json:"total_generations"`
	GenerationsToday  int64              `json:"generations_today"`
	ActiveToday       int64              `json:"active_today"`
	BannedUsers       int64              `json:"banned_users"`
	RecentGenerations []RecentGeneration `json:"recent_generations"`
}

// RecentGeneration 最近生成记录
type RecentGeneration struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	UserName  string `json:"user_name"`
	CreatedAt string `json:"created_at"`
}

// UpdateLimitRequest 修改用户每日上限
type UpdateLimitRequest struct {
	Limit int `json:"limit" binding:"required,min=1,max=1000"`
}

// BanRequest 封禁/解封用户
type BanRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}

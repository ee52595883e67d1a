package dto

// GenerateRequest 生成寄语请求
type GenerateRequest struct {
	Topic string `json:"topic" binding:"required,min=1,max=50"`
	Day   int    `json:"day" binding:"required,min=1,max=30"`
	Hint  string `json:"hint,omitempty" binding:"omitempty,max=300"`
}

// GenerateResponse 生成寄语响应
type GenerateResponse struct {
	GenerationID int64      `json:"generation_id"`
	Text         string     `json:"text"`
	FileName     string     `json:"file_name"`
	User         *UserInfo  `json:"user"`
	Quota        *QuotaInfo `json:"quota"`
}

// GenerationItem 历史记录项
type GenerationItem struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	Day       int    `json:"day"`
	Hint      string `json:"hint,omitempty"`
	Message   string `json:"message"`
	FileName  string `json:"file_name"`
	CreatedAt string `json:"created_at"`
}

// ShareResponse 分享任务创建响应
type ShareResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// FlyerJobStatus 分享任务状态
type FlyerJobStatus struct {
	JobID        int64  `json:"job_id"`
	GenerationID int64  `json:"generation_id"`
	Status       string `json:"status"`
	URL          string `json:"url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// VerseInfo 每日经文
type VerseInfo struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
	Theme     string `json:"theme"`
	Date      string `json:"date"`
}

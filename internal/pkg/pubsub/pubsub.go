package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelFlyerProgress = "flyer_progress"
)

// ProgressMessage 分享海报任务进度
type ProgressMessage struct {
	Type         string `json:"type"`
	UserID       int64  `json:"user_id"`
	GenerationID int64  `json:"generation_id"`
	JobID        int64  `json:"job_id"`
	Status       string `json:"status"`
	Step         string `json:"step"`
	Progress     int    `json:"progress"`
	Message      string `json:"message,omitempty"`
	URL          string `json:"url,omitempty"`
	Error        string `json:"error,omitempty"`
}

// 进度阶段
const (
	StepRendering = "rendering"
	StepUploading = "uploading"
	StepDone      = "done"
	StepFailed    = "failed"
)

var StepProgress = map[string]int{
	StepRendering: 30,
	StepUploading: 70,
	StepDone:      100,
}

var StepMessages = map[string]string{
	StepRendering: "Rendering your flyer",
	StepUploading: "Uploading your flyer",
	StepDone:      "Your flyer is ready to share",
	StepFailed:    "Flyer could not be created",
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布进度消息，按阶段自动补全进度和提示
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "flyer_progress"

	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelFlyerProgress, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅进度消息，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelFlyerProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}

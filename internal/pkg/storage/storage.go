package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/oss"
)

// Storage 分享海报的对象存储
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New 根据 storage.backend 选择存储后端
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		l, err := NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "oss":
		c, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "s3":
		s, err := NewS3(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// ObjectKey 按日期分目录并加随机前缀，避免同名覆盖
func ObjectKey(now time.Time, fileName string) string {
	d := now.UTC()
	return fmt.Sprintf("flyers/%d/%02d/%02d/%s-%s", d.Year(), d.Month(), d.Day(), uuid.New().String(), fileName)
}

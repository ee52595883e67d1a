package logging

import "context"

// Logger 结构化日志接口，args 为键值对，例如
// log.Info(ctx, "flyer rendered", "generation_id", id, "bytes", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With 返回附带固定字段的子 logger
	With(args ...any) Logger
}

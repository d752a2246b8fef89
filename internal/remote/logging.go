package remote

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingClient is a decorator that logs every API call with its latency.
// Tokens and passwords are never logged.
type LoggingClient struct {
	inner  Client
	logger *zap.Logger
}

// WithLogging wraps a Client with call logging. A nil logger returns c
// unchanged.
func WithLogging(c Client, logger *zap.Logger) Client {
	if logger == nil {
		return c
	}
	return &LoggingClient{inner: c, logger: logger}
}

func (l *LoggingClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	start := time.Now()
	res, err := l.inner.Login(ctx, email, password)
	l.log("login", start, err, zap.String("email", email))
	return res, err
}

func (l *LoggingClient) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	start := time.Now()
	res, err := l.inner.Register(ctx, email, password, name)
	l.log("register", start, err, zap.String("email", email))
	return res, err
}

func (l *LoggingClient) Me(ctx context.Context, token string) (*AuthResult, error) {
	start := time.Now()
	res, err := l.inner.Me(ctx, token)
	l.log("me", start, err)
	return res, err
}

func (l *LoggingClient) FetchProgress(ctx context.Context, token string) (*ProgressResponse, error) {
	start := time.Now()
	res, err := l.inner.FetchProgress(ctx, token)
	fields := []zap.Field{}
	if res != nil {
		fields = append(fields, zap.Int("lessons", len(res.Progress)))
	}
	l.log("fetch progress", start, err, fields...)
	return res, err
}

func (l *LoggingClient) CompleteLesson(ctx context.Context, token, levelID, lessonID string) error {
	start := time.Now()
	err := l.inner.CompleteLesson(ctx, token, levelID, lessonID)
	l.log("complete lesson", start, err, zap.String("level_id", levelID), zap.String("lesson_id", lessonID))
	return err
}

func (l *LoggingClient) log(call string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("call", call),
		zap.Duration("latency", time.Since(start)),
	)
	if err != nil {
		fields = append(fields, zap.Int("status", StatusCode(err)), zap.Error(err))
		l.logger.Debug("api call failed", fields...)
		return
	}
	l.logger.Debug("api call", fields...)
}

package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/blobgate/blobgate/config"
)

type LoggerClient struct {
	logger *slog.Logger
}

// InitLoggerClient builds the service logger. Development mode writes
// plain text to stdout; everything else goes through the OTLP log
// pipeline, so InitTelemetry must run first.
func InitLoggerClient(cfg *config.EnvConfig) *LoggerClient {
	var logger *slog.Logger
	if cfg.Environment.Mode == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = otelslog.NewLogger(cfg.Grafana.ServiceName)
	}

	logger = logger.With(
		slog.String("service", cfg.Grafana.ServiceName),
		slog.String("group", cfg.Environment.Group),
	)

	return &LoggerClient{logger: logger}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.Any("error", err))
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/easycollege/feedback-orchestrator/config"
)

// LoggerClient is the shared structured logger. With an OTLP endpoint
// configured it writes through the otelslog bridge so log records join the
// exported telemetry; in development it is a plain stdout handler.
type LoggerClient struct {
	logger *slog.Logger
}

func InitLoggerClient(cfg *config.EnvConfig) *LoggerClient {
	var logger *slog.Logger
	if cfg.Grafana.OTLPEndpoint != "" {
		logger = otelslog.NewLogger(cfg.Grafana.ServiceName)
	} else {
		level := slog.LevelInfo
		if cfg.Environment.Mode == "development" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return &LoggerClient{logger: logger}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...any) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...any) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...any) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.String("error", err.Error()))
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/segyhp/claimant-engine/internal/config"
)

// New builds the application logger from the logging config. Production encoding with
// ISO8601 timestamps; LOG_FORMAT=console switches to the human readable encoder.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(cfg.Format, "console") {
		logConfig.Encoding = "console"
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return logConfig.Build()
}

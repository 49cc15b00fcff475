// Package logging builds the zap logger shared by the server and backfill binaries.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/config"
)

// New initializes the logger based on configuration. Unknown levels fall back
// to info; the "console" format selects the colored development encoder.
func New(cfg config.LoggingConfig) *zap.Logger {
	var zapConfig zap.Config

	level := zap.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zap.InfoLevel
	}

	// Choose log format: json or console
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Printf("Failed to create logger: %v. Using default logger.\n", err)
		return zap.NewExample()
	}

	return logger
}

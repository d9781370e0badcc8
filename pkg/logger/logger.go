package logger

import (
	"go.uber.org/zap"
)

// LoggerConfig controls logger construction
type LoggerConfig struct {
	Debug bool
}

// NewLogger creates a zap logger. Debug enables development encoding and
// debug-level output; production encoding is used otherwise.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

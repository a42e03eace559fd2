package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logFormats maps logging.format to the zap preset it starts from.
var logFormats = map[string]func() zap.Config{
	"":        zap.NewProductionConfig,
	"json":    zap.NewProductionConfig,
	"console": zap.NewDevelopmentConfig,
}

// NewLogger builds the logger described by logging.level and logging.format.
// Both binaries log to stderr only, since stdout carries MCP frames or the
// token count.
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	format := strings.ToLower(v.GetString("logging.format"))
	preset, ok := logFormats[format]
	if !ok {
		return nil, fmt.Errorf("logging.format %q: want json or console", format)
	}

	cfg := preset()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Package logging builds the zap.Logger used everywhere else, shaped by
// NODE_ENV: JSON output in production, a colored console in development,
// and a warn-level floor in test runs to keep output quiet.
package logging

import (
	"github.com/alexswiontek/dungeon-crawler/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger appropriate for env: console/debug for development,
// console/warn for test, JSON/info for production.
func New(env config.Environment) (*zap.Logger, error) {
	var zapCfg zap.Config
	switch env {
	case config.EnvProduction:
		zapCfg = zap.NewProductionConfig()
	default:
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableStacktrace = true
	}
	if env == config.EnvTest {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zapCfg.Build()
}

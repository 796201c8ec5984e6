// README: zap logger construction (JSON in production, console otherwise).
package infra

import (
	"go.uber.org/zap"
)

func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	return cfg.Build()
}

package config

import (
	"go.uber.org/zap"
)

// NewLogger returns a production JSON logger in production and a
// development console logger everywhere else.
func NewLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// internal/app/logger.go
package app

import (
	"fanbase-service/internal/config"

	"go.uber.org/zap"
)

// NewLogger builds a development logger outside production.
func NewLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

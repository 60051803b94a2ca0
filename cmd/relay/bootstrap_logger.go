package main

import (
	relay_config "github.com/wxpush/relay/internal/config/relay"
	"github.com/wxpush/relay/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *relay_config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}

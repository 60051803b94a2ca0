package main

import (
	"context"

	relay_config "github.com/wxpush/relay/internal/config/relay"
	"github.com/wxpush/relay/internal/obs"
)

func initOTel(ctx context.Context, cfg *relay_config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}

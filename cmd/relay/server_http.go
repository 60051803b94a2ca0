package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	relay_config "github.com/wxpush/relay/internal/config/relay"
	"github.com/wxpush/relay/internal/relay"
	transport "github.com/wxpush/relay/internal/transport/http"
)

func buildHTTPServer(cfg *relay_config.Config, disp *relay.Dispatcher, logger *zap.Logger) *http.Server {
	h := transport.NewHandler(cfg, disp, logger)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           h.Router(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *relay_config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}

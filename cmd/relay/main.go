package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	relay_config "github.com/wxpush/relay/internal/config/relay"
	"github.com/wxpush/relay/internal/obs"
	"github.com/wxpush/relay/internal/relay"
	"github.com/wxpush/relay/internal/wechat"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := relay_config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting relay", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	client := wechat.NewClient(wechat.Config{
		APIBase: cfg.WeChat.APIBase,
		Timeout: cfg.WeChat.Timeout,
	}, logger)
	disp := relay.NewDispatcher(client, cfg.Auth.Token, cfg.WeChat.TemplateSchema, prometheus.DefaultRegisterer, logger)

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(context.Context) error { return nil }, logger)

	httpSrv := buildHTTPServer(cfg, disp, logger)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr = <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}

package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/history/factory"
	"github.com/loykin/vigil/internal/metrics"
	"github.com/loykin/vigil/internal/supervisor"
)

// runDaemon runs the supervisor loop for dir until SIGINT or SIGTERM.
func runDaemon(ctx context.Context, dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	logger, closeLog := cfg.Log.New()
	defer func() { _ = closeLog.Close() }()

	var capture io.Writer
	if cw := cfg.Log.CaptureWriter(); cw != nil {
		capture = cw
		defer func() { _ = cw.Close() }()
	}

	if err := metrics.RegisterDefault(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if cfg.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsListen); err != nil {
				logger.Error("metrics listener failed", "addr", cfg.MetricsListen, "error", err)
			}
		}()
	}

	sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
	if err != nil {
		return fmt.Errorf("open history journal: %w", err)
	}
	defer func() { _ = sink.Close() }()

	sup, err := supervisor.New(supervisor.Options{
		Config:  cfg,
		Logger:  logger,
		History: sink,
		Capture: capture,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return sup.Run(ctx)
}

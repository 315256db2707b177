package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mselser95/chainhawk/internal/scanner"
	"go.uber.org/zap"
)

// Run starts every component and blocks until a shutdown signal arrives.
func (a *App) Run() error {
	a.logger.Info("agent-starting",
		zap.String("rpc-url", a.cfg.RPCURL),
		zap.Int64("chain-id", a.cfg.ChainID),
		zap.String("log-level", a.cfg.LogLevel))

	if err := a.startComponents(); err != nil {
		return err
	}

	a.probe.SetReady(true)
	a.logger.Info("agent-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	if a.breaker != nil {
		a.wg.Add(1)
		go a.runBreaker()
	}

	a.wg.Add(1)
	go a.runPipeline()

	for _, poller := range a.pollers {
		a.wg.Add(1)
		go a.runPoller(poller)
	}

	if a.feed != nil {
		if err := a.feed.Start(a.ctx); err != nil {
			return fmt.Errorf("start mempool feed: %w", err)
		}
		a.wg.Add(1)
		go a.runWatcher()
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runBreaker() {
	defer a.wg.Done()
	if err := a.breaker.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("circuit-breaker-error", zap.Error(err))
	}
}

func (a *App) runPipeline() {
	defer a.wg.Done()
	if err := a.pipeline.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("pipeline-error", zap.Error(err))
	}
}

func (a *App) runPoller(p *scanner.Poller) {
	defer a.wg.Done()
	if err := p.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("scanner-error", zap.Error(err))
	}
}

func (a *App) runWatcher() {
	defer a.wg.Done()
	if err := a.watcher.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("mempool-watcher-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}

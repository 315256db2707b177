package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown stops components in dependency order: stop taking work, drain the
// pipeline, flush outcomes, then release connections.
func (a *App) Shutdown() error {
	a.logger.Info("agent-shutting-down")

	a.probe.SetReady(false)

	// Signals scanners, the pipeline and the breaker to stop.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			a.logger.Error("mempool-feed-close-error", zap.Error(err))
		}
	}

	a.wg.Wait()

	// In-flight sink deliveries finish before storage closes under them.
	a.reporter.Flush()

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.priceCache.Close()

	a.client.Close()

	a.logger.Info("agent-shutdown-complete")
	return nil
}

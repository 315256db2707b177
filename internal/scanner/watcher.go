package scanner

import (
	"context"
	"time"

	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// heightRefreshInterval bounds how often the watcher re-reads the chain
// height. Pending transactions arrive far more often than blocks do.
const heightRefreshInterval = time.Second

// MempoolWatcher fans one pending-transaction feed out to the mempool
// strategies.
type MempoolWatcher struct {
	strats []strategy.MempoolStrategy
	client chain.Client
	txs    <-chan *types.PendingTx
	out    chan<- *types.Opportunity
	logger *zap.Logger

	height          uint64
	heightRefreshed time.Time
}

// NewMempoolWatcher creates a watcher over txs emitting into out.
func NewMempoolWatcher(
	strats []strategy.MempoolStrategy,
	client chain.Client,
	txs <-chan *types.PendingTx,
	out chan<- *types.Opportunity,
	logger *zap.Logger,
) *MempoolWatcher {
	return &MempoolWatcher{
		strats: strats,
		client: client,
		txs:    txs,
		out:    out,
		logger: logger,
	}
}

// Run consumes the feed until the context is cancelled. A failed inspection
// by one strategy never blocks the others or stops the watch.
func (w *MempoolWatcher) Run(ctx context.Context) error {
	w.logger.Info("mempool-watcher-started", zap.Int("strategies", len(w.strats)))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mempool-watcher-stopped")
			return ctx.Err()
		case tx, ok := <-w.txs:
			if !ok {
				w.logger.Info("mempool-feed-closed")
				return nil
			}
			w.inspect(ctx, tx)
		}
	}
}

func (w *MempoolWatcher) inspect(ctx context.Context, tx *types.PendingTx) {
	height := w.currentHeight(ctx)

	for _, strat := range w.strats {
		kind := string(strat.Kind())

		opp, err := strat.Inspect(ctx, tx, height)
		if err != nil {
			InspectFailuresTotal.WithLabelValues(kind).Inc()
			w.logger.Warn("inspection-failed",
				zap.String("kind", kind),
				zap.String("tx", tx.Hash.Hex()),
				zap.Error(err))
			continue
		}
		if opp != nil {
			emit(w.out, opp, w.logger)
		}
	}
}

// currentHeight returns a height at most heightRefreshInterval old. A stale
// read only widens the staleness window the evaluator already bounds.
func (w *MempoolWatcher) currentHeight(ctx context.Context) uint64 {
	if time.Since(w.heightRefreshed) < heightRefreshInterval && w.height > 0 {
		return w.height
	}

	height, err := w.client.BlockNumber(ctx)
	if err != nil {
		w.logger.Warn("height-query-failed", zap.Error(err))
		return w.height
	}

	w.height = height
	w.heightRefreshed = time.Now()
	return height
}

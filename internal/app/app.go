// Package app assembles and supervises the trading agent: scanners feeding
// the evaluation and execution pipeline, the outcome reporter, and the
// operational HTTP surface.
package app

import (
	"context"
	"sync"

	"github.com/mselser95/chainhawk/internal/circuitbreaker"
	"github.com/mselser95/chainhawk/internal/orchestrator"
	"github.com/mselser95/chainhawk/internal/reporter"
	"github.com/mselser95/chainhawk/internal/scanner"
	"github.com/mselser95/chainhawk/internal/storage"
	"github.com/mselser95/chainhawk/pkg/cache"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/healthprobe"
	"github.com/mselser95/chainhawk/pkg/httpserver"
	"github.com/mselser95/chainhawk/pkg/mempool"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	probe      *healthprobe.Probe
	httpServer *httpserver.Server

	client     chain.Client
	priceCache cache.Cache

	pollers       []*scanner.Poller
	watcher       *scanner.MempoolWatcher
	feed          *mempool.Feed
	opportunities chan *types.Opportunity

	pipeline *orchestrator.Pipeline
	reporter *reporter.Reporter
	store    storage.Storage
	breaker  *circuitbreaker.GasBreaker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/internal/circuitbreaker"
	"github.com/mselser95/chainhawk/internal/evaluator"
	"github.com/mselser95/chainhawk/internal/funding"
	"github.com/mselser95/chainhawk/internal/orchestrator"
	"github.com/mselser95/chainhawk/internal/reporter"
	"github.com/mselser95/chainhawk/internal/scanner"
	"github.com/mselser95/chainhawk/internal/storage"
	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/pkg/cache"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/healthprobe"
	"github.com/mselser95/chainhawk/pkg/httpserver"
	"github.com/mselser95/chainhawk/pkg/mempool"
	"github.com/mselser95/chainhawk/pkg/pricefeed"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/mselser95/chainhawk/pkg/wallet"
	"go.uber.org/zap"
)

// opportunityBuffer sizes the scanner-to-pipeline channel. Scanners drop
// rather than block when it fills; opportunities age out in blocks anyway.
const opportunityBuffer = 256

// priceCacheTTL bounds how long an oracle answer is reused.
const priceCacheTTL = 5 * time.Second

// strategySet is everything the enabled strategies contribute to the wiring.
type strategySet struct {
	pollers    []strategy.PollStrategy
	mempool    []strategy.MempoolStrategy
	builders   map[types.StrategyKind]strategy.PlanBuilder
	facilities map[common.Address]funding.Facility
}

// New assembles the application from configuration. Nothing is started yet;
// Run does that.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dial chain: %w", err)
	}

	account, err := wallet.LoadFromEnv(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	priceCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	prices, err := setupPriceFeed(cfg, client, priceCache, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup price feed: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	rep := reporter.New([]reporter.Sink{store}, logger)

	breaker, err := setupBreaker(cfg, client, account.Address(), logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	deps := strategy.Deps{
		Client:         client,
		Account:        account.Address(),
		GasLimit:       cfg.GasLimit,
		DeadlineBlocks: cfg.DeadlineBlocks,
	}
	strategies := buildStrategies(cfg, deps, prices, logger)

	// The executor contract takes delivery of borrowed funds: funded plans
	// always run through it.
	fundingProvider := funding.NewProvider(strategies.facilities, cfg.ExecutorContract, logger)

	var gate orchestrator.Gate
	if breaker != nil {
		gate = breaker
	}
	engine := orchestrator.New(orchestrator.Config{
		MaxRetries:          cfg.MaxRetries,
		RetryBaseDelay:      cfg.RetryBaseDelay,
		RetryMaxDelay:       cfg.RetryMaxDelay,
		FeePremiumBPS:       cfg.FeePremiumBPS,
		ConfirmPollInterval: cfg.ConfirmPollInterval,
		GasLimit:            cfg.GasLimit,
		ExecutorContract:    cfg.ExecutorContract,
	}, client, account, gate, logger)

	opportunities := make(chan *types.Opportunity, opportunityBuffer)
	eval := evaluator.New(evaluator.Config{
		SlippageBPS:      cfg.SlippageBPS,
		StaleAfterBlocks: cfg.StaleAfterBlocks,
	}, logger)
	pipeline := orchestrator.NewPipeline(
		opportunities, eval, strategies.builders, fundingProvider, engine, client, rep, logger)

	pollers := make([]*scanner.Poller, 0, len(strategies.pollers))
	for _, strat := range strategies.pollers {
		pollers = append(pollers, scanner.NewPoller(strat, client, opportunities, logger))
	}

	var (
		feed    *mempool.Feed
		watcher *scanner.MempoolWatcher
	)
	if len(strategies.mempool) > 0 {
		feed, err = setupMempoolFeed(cfg, client, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup mempool feed: %w", err)
		}
		watcher = scanner.NewMempoolWatcher(strategies.mempool, client, feed.TxChan(), opportunities, logger)
	}

	probe := healthprobe.New()
	httpCfg := &httpserver.Config{
		Port:   cfg.HTTPPort,
		Logger: logger,
		Probe:  probe,
		Ledger: rep,
	}
	if breaker != nil {
		httpCfg.Breaker = breaker
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		probe:         probe,
		httpServer:    httpserver.New(httpCfg),
		client:        client,
		priceCache:    priceCache,
		pollers:       pollers,
		watcher:       watcher,
		feed:          feed,
		opportunities: opportunities,
		pipeline:      pipeline,
		reporter:      rep,
		store:         store,
		breaker:       breaker,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10_000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupPriceFeed(cfg *config.Config, client chain.Client, c cache.Cache, logger *zap.Logger) (pricefeed.Source, error) {
	feeds, err := pricefeed.ParseFeedPairs(cfg.PriceFeedPairs)
	if err != nil {
		return nil, err
	}

	source := pricefeed.NewChainlinkSource(client, feeds, logger)
	return pricefeed.NewCachedSource(source, c, priceCacheTTL), nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupBreaker(cfg *config.Config, client chain.Client, account common.Address, logger *zap.Logger) (*circuitbreaker.GasBreaker, error) {
	if !cfg.CircuitBreakerEnabled {
		logger.Info("circuit-breaker-disabled")
		return nil, nil
	}

	minBalance, ok := new(big.Int).SetString(cfg.CircuitBreakerMinBalanceWei, 10)
	if !ok {
		return nil, fmt.Errorf("CIRCUIT_BREAKER_MIN_BALANCE_WEI: invalid integer %q", cfg.CircuitBreakerMinBalanceWei)
	}

	return circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval: cfg.CircuitBreakerCheckInterval,
		MinBalance:    minBalance,
		Client:        client,
		Address:       account,
		Logger:        logger,
	})
}

func setupMempoolFeed(cfg *config.Config, client chain.Client, logger *zap.Logger) (*mempool.Feed, error) {
	return mempool.New(&mempool.Config{
		WSURL:                 cfg.MempoolWSURL,
		Client:                client,
		Logger:                logger,
		DialTimeout:           10 * time.Second,
		BufferSize:            1000,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     30 * time.Second,
		ReconnectBackoffMult:  2.0,
	})
}

// buildStrategies instantiates the enabled strategies and collects their
// scanner, builder and funding-facility contributions.
func buildStrategies(cfg *config.Config, deps strategy.Deps, prices pricefeed.Source, logger *zap.Logger) strategySet {
	set := strategySet{
		builders:   make(map[types.StrategyKind]strategy.PlanBuilder),
		facilities: make(map[common.Address]funding.Facility),
	}

	if cfg.Arbitrage.Enabled {
		arb := strategy.NewArbitrage(cfg.Arbitrage, deps, logger)
		set.pollers = append(set.pollers, arb)
		set.builders[arb.Kind()] = arb
	}

	if cfg.Flashloan.Enabled {
		fl := strategy.NewFlashloan(cfg.Flashloan, deps, logger)
		set.pollers = append(set.pollers, fl)
		set.builders[fl.Kind()] = fl
		set.facilities[cfg.Flashloan.Asset] = funding.Facility{
			Pool:   cfg.Flashloan.LendingPool,
			FeeBPS: cfg.Flashloan.BorrowFeeBPS,
		}
	}

	if cfg.Frontrun.Enabled {
		fr := strategy.NewFrontrun(cfg.Frontrun, deps, logger)
		set.mempool = append(set.mempool, fr)
		set.builders[fr.Kind()] = fr
	}

	if cfg.Liquidation.Enabled {
		liq := strategy.NewLiquidation(cfg.Liquidation, deps, prices, logger)
		set.pollers = append(set.pollers, liq)
		set.builders[liq.Kind()] = liq
		set.facilities[cfg.Liquidation.DebtAsset] = funding.Facility{
			Pool:   cfg.Liquidation.LendingPool,
			FeeBPS: cfg.Liquidation.BorrowFeeBPS,
		}
	}

	if cfg.Sandwich.Enabled {
		sw := strategy.NewSandwich(cfg.Sandwich, deps, logger)
		set.mempool = append(set.mempool, sw)
		set.builders[sw.Kind()] = sw
	}

	if cfg.HFT.Enabled {
		hft := strategy.NewHFT(cfg.HFT, deps, prices, logger)
		set.pollers = append(set.pollers, hft)
		set.builders[hft.Kind()] = hft
	}

	logger.Info("strategies-configured",
		zap.Int("pollers", len(set.pollers)),
		zap.Int("mempool-watchers", len(set.mempool)))

	return set
}

// Package circuitbreaker halts submissions when the funding account can no
// longer pay for gas.
package circuitbreaker

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
	"go.uber.org/zap"
)

// hysteresisBPS lifts the re-enable threshold above the disable threshold so
// a balance oscillating around the minimum does not flap the breaker.
const hysteresisBPS = 1000

// GasBreaker monitors the funding account's native balance and vetoes
// submissions while it sits below the configured minimum. It satisfies the
// orchestrator's Gate interface.
type GasBreaker struct {
	enabled atomic.Bool

	checkInterval   time.Duration
	client          chain.Client
	address         common.Address
	logger          *zap.Logger
	minBalance      *big.Int
	enableThreshold *big.Int

	mu          sync.RWMutex
	lastBalance *big.Int
	lastCheck   time.Time
}

// Config holds circuit breaker configuration.
type Config struct {
	CheckInterval time.Duration
	MinBalance    *big.Int
	Client        chain.Client
	Address       common.Address
	Logger        *zap.Logger
}

// Status is a snapshot for debugging and HTTP endpoints.
type Status struct {
	Enabled     bool
	LastBalance *big.Int
	LastCheck   time.Time
	MinBalance  *big.Int
}

// New creates a breaker. It starts enabled; the first check may disable it.
func New(cfg *Config) (*GasBreaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.MinBalance == nil || cfg.MinBalance.Sign() <= 0 {
		return nil, fmt.Errorf("min balance must be positive")
	}

	enableAt := new(big.Int).Mul(cfg.MinBalance, big.NewInt(10000+hysteresisBPS))
	enableAt.Div(enableAt, big.NewInt(10000))

	b := &GasBreaker{
		checkInterval:   cfg.CheckInterval,
		client:          cfg.Client,
		address:         cfg.Address,
		logger:          cfg.Logger,
		minBalance:      new(big.Int).Set(cfg.MinBalance),
		enableThreshold: enableAt,
		lastBalance:     big.NewInt(0),
	}
	b.enabled.Store(true)
	BreakerEnabled.Set(1)

	return b, nil
}

// Allow reports whether submissions may proceed. Lock-free, safe on hot paths.
func (b *GasBreaker) Allow() bool {
	return b.enabled.Load()
}

// Check fetches the balance and updates the enabled state.
func (b *GasBreaker) Check(ctx context.Context) error {
	start := time.Now()
	defer func() {
		BreakerCheckDuration.Observe(time.Since(start).Seconds())
	}()

	balance, err := b.client.BalanceAt(ctx, b.address)
	if err != nil {
		return fmt.Errorf("balance at: %w", err)
	}

	b.mu.Lock()
	b.lastBalance = balance
	b.lastCheck = time.Now()
	b.mu.Unlock()

	bal, _ := new(big.Float).SetInt(balance).Float64()
	BreakerBalance.Set(bal)

	currentlyEnabled := b.enabled.Load()
	switch {
	case currentlyEnabled && balance.Cmp(b.minBalance) < 0:
		b.enabled.Store(false)
		BreakerEnabled.Set(0)
		BreakerStateChanges.Inc()
		b.logger.Warn("circuit-breaker-opened",
			zap.String("balance", balance.String()),
			zap.String("min-balance", b.minBalance.String()))
	case !currentlyEnabled && balance.Cmp(b.enableThreshold) >= 0:
		b.enabled.Store(true)
		BreakerEnabled.Set(1)
		BreakerStateChanges.Inc()
		b.logger.Info("circuit-breaker-closed",
			zap.String("balance", balance.String()),
			zap.String("enable-threshold", b.enableThreshold.String()))
	default:
		b.logger.Debug("balance-checked",
			zap.String("balance", balance.String()),
			zap.Bool("enabled", currentlyEnabled))
	}

	return nil
}

// Run checks immediately, then on every tick until the context is cancelled.
func (b *GasBreaker) Run(ctx context.Context) error {
	b.logger.Info("circuit-breaker-started",
		zap.Duration("check-interval", b.checkInterval),
		zap.String("min-balance", b.minBalance.String()))

	if err := b.Check(ctx); err != nil {
		b.logger.Error("initial-balance-check-failed", zap.Error(err))
	}

	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("circuit-breaker-stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := b.Check(ctx); err != nil {
				b.logger.Error("balance-check-failed", zap.Error(err))
			}
		}
	}
}

// GetStatus returns a snapshot for the HTTP status endpoint.
func (b *GasBreaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Enabled:     b.enabled.Load(),
		LastBalance: new(big.Int).Set(b.lastBalance),
		LastCheck:   b.lastCheck,
		MinBalance:  new(big.Int).Set(b.minBalance),
	}
}

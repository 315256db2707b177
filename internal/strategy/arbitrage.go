package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// Arbitrage detects cross-venue price divergence on one token pair: buy on
// the cheaper router, sell on the dearer one, keep the difference.
type Arbitrage struct {
	cfg    config.ArbitrageConfig
	deps   Deps
	logger *zap.Logger
}

// NewArbitrage creates the cross-venue arbitrage strategy.
func NewArbitrage(cfg config.ArbitrageConfig, deps Deps, logger *zap.Logger) *Arbitrage {
	return &Arbitrage{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *Arbitrage) Kind() types.StrategyKind { return types.KindArbitrage }

// Interval returns the polling interval.
func (s *Arbitrage) Interval() time.Duration { return s.cfg.PollInterval }

// Poll quotes the round trip on both routers and emits a candidate when the
// probe amount comes back larger than it went in.
func (s *Arbitrage) Poll(ctx context.Context, height uint64) ([]*types.Opportunity, error) {
	buyPath := []common.Address{s.cfg.TokenIn, s.cfg.TokenOut}
	bought, err := chain.QueryAmountsOut(ctx, s.deps.Client, s.cfg.BuyRouter, s.cfg.ProbeAmount, buyPath)
	if err != nil {
		return nil, fmt.Errorf("quote buy leg: %w", err)
	}

	sellPath := []common.Address{s.cfg.TokenOut, s.cfg.TokenIn}
	returned, err := chain.QueryAmountsOut(ctx, s.deps.Client, s.cfg.SellRouter, bought, sellPath)
	if err != nil {
		return nil, fmt.Errorf("quote sell leg: %w", err)
	}

	gain := types.SaturatingSub(returned, s.cfg.ProbeAmount)
	if gain.IsZero() {
		return nil, nil
	}

	cost, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}

	subject := types.TokenPairSubject{
		TokenIn:     s.cfg.TokenIn,
		TokenOut:    s.cfg.TokenOut,
		BuyRouter:   s.cfg.BuyRouter,
		SellRouter:  s.cfg.SellRouter,
		ProbeAmount: s.cfg.ProbeAmount.Clone(),
	}

	opp := types.NewOpportunity(types.KindArbitrage, subject, height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindArbitrage)).Inc()
	s.logger.Info("divergence-detected",
		zap.String("opportunity-id", opp.ID),
		zap.String("gross-gain", gain.Dec()),
		zap.Uint64("block", height))

	return []*types.Opportunity{opp}, nil
}

// BuildPlan builds the two-leg swap: buy on the cheap venue, sell on the
// dear one. The sell leg consumes the buy leg's output and must return at
// least the probe amount or the whole plan reverts.
func (s *Arbitrage) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.TokenPairSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	recipient := s.deps.Account
	steps := []types.Step{
		swapStep(subject.BuyRouter, subject.ProbeAmount, nil,
			[]common.Address{subject.TokenIn, subject.TokenOut}, recipient),
		priorOutputSwapStep(subject.SellRouter, subject.ProbeAmount,
			[]common.Address{subject.TokenOut, subject.TokenIn}, recipient),
	}

	return types.NewExecutionPlan(opp, steps, s.deps.deadline(head)), nil
}

package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/pricefeed"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// HFT polls the oracle price on a tight interval and fires a buy when the
// price drops to or below the configured target. Latency is the edge here;
// the poll path stays allocation-light and the price source is cached.
type HFT struct {
	cfg    config.HFTConfig
	deps   Deps
	prices pricefeed.Source
	logger *zap.Logger
}

// NewHFT creates the latency-sensitive price trigger strategy.
func NewHFT(cfg config.HFTConfig, deps Deps, prices pricefeed.Source, logger *zap.Logger) *HFT {
	return &HFT{
		cfg:    cfg,
		deps:   deps,
		prices: prices,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *HFT) Kind() types.StrategyKind { return types.KindHFT }

// Interval returns the polling interval.
func (s *HFT) Interval() time.Duration { return s.cfg.PollInterval }

// Poll fires when the oracle price reaches the target. The expected gain is
// the trade amount scaled by the price gap relative to the target.
func (s *HFT) Poll(ctx context.Context, height uint64) ([]*types.Opportunity, error) {
	price, err := s.prices.Price(ctx, s.cfg.Asset)
	if err != nil {
		return nil, fmt.Errorf("oracle price: %w", err)
	}

	if price.Gt(s.cfg.TargetPrice) {
		return nil, nil
	}

	// gain = tradeAmount * (target - price) / target
	gap := types.SaturatingSub(s.cfg.TargetPrice, price)
	gain := new(uint256.Int).Mul(s.cfg.TradeAmount, gap)
	gain.Div(gain, s.cfg.TargetPrice)
	if gain.IsZero() {
		return nil, nil
	}

	cost, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}

	subject := types.PriceTargetSubject{
		Asset:       s.cfg.Asset,
		Router:      s.cfg.Router,
		TargetPrice: s.cfg.TargetPrice.Clone(),
		TradeAmount: s.cfg.TradeAmount.Clone(),
	}

	opp := types.NewOpportunity(types.KindHFT, subject, height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindHFT)).Inc()
	s.logger.Info("price-target-hit",
		zap.String("opportunity-id", opp.ID),
		zap.String("price", price.Dec()),
		zap.String("target", s.cfg.TargetPrice.Dec()),
		zap.Uint64("block", height))

	return []*types.Opportunity{opp}, nil
}

// BuildPlan builds a single buy of the trade amount on the configured router.
func (s *HFT) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.PriceTargetSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	steps := []types.Step{
		swapStep(subject.Router, subject.TradeAmount, nil,
			[]common.Address{s.cfg.Base, subject.Asset}, s.deps.Account),
	}

	return types.NewExecutionPlan(opp, steps, s.deps.deadline(head)), nil
}

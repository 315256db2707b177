package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// Flashloan detects multi-leg arbitrage cycles large enough to be worth
// running on borrowed capital. The trade path starts and ends at the borrow
// asset; the plan is later bracketed with borrow and repay steps by the
// funding provider.
type Flashloan struct {
	cfg    config.FlashloanConfig
	deps   Deps
	logger *zap.Logger
}

// NewFlashloan creates the flash-borrow arbitrage strategy.
func NewFlashloan(cfg config.FlashloanConfig, deps Deps, logger *zap.Logger) *Flashloan {
	return &Flashloan{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *Flashloan) Kind() types.StrategyKind { return types.KindFlashloanArbitrage }

// Interval returns the polling interval.
func (s *Flashloan) Interval() time.Duration { return s.cfg.PollInterval }

// Poll checks that the facility can cover the borrow, quotes the full cycle
// leg by leg, and emits a candidate when the cycle returns more than the
// borrow plus its fee.
func (s *Flashloan) Poll(ctx context.Context, height uint64) ([]*types.Opportunity, error) {
	liquidity, err := chain.QueryUint256(ctx, s.deps.Client,
		chain.LendingPoolABI, s.cfg.LendingPool, "getReserveData", s.cfg.Asset)
	if err != nil {
		return nil, fmt.Errorf("query reserve liquidity: %w", err)
	}

	borrow := s.cfg.MinLiquidity
	if liquidity.Lt(borrow) {
		s.logger.Debug("insufficient-pool-liquidity",
			zap.String("available", liquidity.Dec()),
			zap.String("needed", borrow.Dec()))
		return nil, nil
	}

	amount := borrow.Clone()
	for i := 0; i < len(s.cfg.Path)-1; i++ {
		legPath := []common.Address{s.cfg.Path[i], s.cfg.Path[i+1]}
		amount, err = chain.QueryAmountsOut(ctx, s.deps.Client, s.cfg.Routers[i], amount, legPath)
		if err != nil {
			return nil, fmt.Errorf("quote leg %d: %w", i, err)
		}
	}

	fee := types.Fraction(borrow, s.cfg.BorrowFeeBPS, 10_000)
	gain := types.SaturatingSub(amount, new(uint256.Int).Add(borrow, fee))
	if gain.IsZero() {
		return nil, nil
	}

	gas, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}
	cost := new(uint256.Int).Add(gas, fee)

	subject := types.TokenPairSubject{
		TokenIn:     s.cfg.Path[0],
		TokenOut:    s.cfg.Path[len(s.cfg.Path)-1],
		ProbeAmount: borrow.Clone(),
	}

	opp := types.NewOpportunity(types.KindFlashloanArbitrage, subject, height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindFlashloanArbitrage)).Inc()
	s.logger.Info("borrow-cycle-detected",
		zap.String("opportunity-id", opp.ID),
		zap.String("gross-gain", gain.Dec()),
		zap.String("borrow", borrow.Dec()),
		zap.Uint64("block", height))

	return []*types.Opportunity{opp}, nil
}

// BuildPlan builds the swap legs only. The first leg spends the borrowed
// amount; the last leg must return at least the repayment or the plan
// reverts. Borrow and repay are attached by the funding provider.
func (s *Flashloan) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.TokenPairSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	borrow := subject.ProbeAmount
	repay := new(uint256.Int).Add(borrow, types.Fraction(borrow, s.cfg.BorrowFeeBPS, 10_000))

	steps := make([]types.Step, 0, len(s.cfg.Path)-1)
	for i := 0; i < len(s.cfg.Path)-1; i++ {
		legPath := []common.Address{s.cfg.Path[i], s.cfg.Path[i+1]}

		var minOut *uint256.Int
		if i == len(s.cfg.Path)-2 {
			minOut = repay // final leg must cover the repayment
		}

		if i == 0 {
			steps = append(steps, swapStep(s.cfg.Routers[i], borrow, minOut, legPath, s.deps.Account))
		} else {
			steps = append(steps, priorOutputSwapStep(s.cfg.Routers[i], minOut, legPath, s.deps.Account))
		}
	}

	return types.NewExecutionPlan(opp, steps, s.deps.deadline(head)), nil
}

// BorrowRequirement reports the asset and amount the funding provider must
// supply for a plan built from this strategy.
func (s *Flashloan) BorrowRequirement(opp *types.Opportunity) (common.Address, *uint256.Int, error) {
	subject, ok := opp.Subject.(types.TokenPairSubject)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}
	return s.cfg.Asset, subject.ProbeAmount.Clone(), nil
}

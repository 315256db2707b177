package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/pricefeed"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// healthFactorFloor is 1.0 scaled by 1e18; positions below it are
// liquidatable.
//
//nolint:gochecknoglobals
var healthFactorFloor = uint256.MustFromDecimal("1000000000000000000")

// Liquidation polls the watched borrowers' health factors and liquidates
// undercollateralized positions, earning the protocol's liquidation bonus.
// The debt repayment is flash-borrowed; the funding provider brackets the
// plan.
type Liquidation struct {
	cfg    config.LiquidationConfig
	deps   Deps
	prices pricefeed.Source
	logger *zap.Logger
}

// NewLiquidation creates the collateral liquidation strategy.
func NewLiquidation(cfg config.LiquidationConfig, deps Deps, prices pricefeed.Source, logger *zap.Logger) *Liquidation {
	return &Liquidation{
		cfg:    cfg,
		deps:   deps,
		prices: prices,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *Liquidation) Kind() types.StrategyKind { return types.KindLiquidation }

// Interval returns the polling interval.
func (s *Liquidation) Interval() time.Duration { return s.cfg.PollInterval }

// Poll walks the watched borrowers. A failed check on one borrower is
// logged and skipped; it never stops the sweep. Collateral without a
// configured price feed is skipped the same way, since its proceeds cannot
// be valued.
func (s *Liquidation) Poll(ctx context.Context, height uint64) ([]*types.Opportunity, error) {
	var opps []*types.Opportunity

	for _, borrower := range s.cfg.Borrowers {
		opp, err := s.checkBorrower(ctx, borrower, height)
		if err != nil {
			CandidateFailuresTotal.WithLabelValues(string(types.KindLiquidation)).Inc()
			if errors.Is(err, pricefeed.ErrUnsupportedAsset) {
				s.logger.Debug("unsupported-collateral",
					zap.String("borrower", borrower.Hex()),
					zap.String("collateral", s.cfg.CollateralAsset.Hex()))
			} else {
				s.logger.Warn("borrower-check-failed",
					zap.String("borrower", borrower.Hex()),
					zap.Error(err))
			}
			continue
		}
		if opp != nil {
			opps = append(opps, opp)
		}
	}

	return opps, nil
}

func (s *Liquidation) checkBorrower(ctx context.Context, borrower common.Address, height uint64) (*types.Opportunity, error) {
	account, err := chain.QueryAccountData(ctx, s.deps.Client, s.cfg.LendingPool, borrower)
	if err != nil {
		return nil, fmt.Errorf("account data: %w", err)
	}

	if !account.HealthFactor.Lt(healthFactorFloor) {
		return nil, nil
	}
	if account.TotalDebt.IsZero() {
		return nil, nil
	}

	// Valuing the seized collateral requires a price feed for the asset.
	if _, err := s.prices.Price(ctx, s.cfg.CollateralAsset); err != nil {
		return nil, err
	}

	debtToCover := types.Fraction(account.TotalDebt, s.cfg.CloseFactorBPS, 10_000)
	if debtToCover.IsZero() {
		return nil, nil
	}

	// The liquidation bonus is the discount on seized collateral, earned on
	// the covered debt.
	gain := types.Fraction(debtToCover, s.cfg.BonusBPS, 10_000)

	gas, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}
	borrowFee := types.Fraction(debtToCover, s.cfg.BorrowFeeBPS, 10_000)
	cost := new(uint256.Int).Add(gas, borrowFee)

	subject := types.BorrowerSubject{
		Borrower:        borrower,
		CollateralAsset: s.cfg.CollateralAsset,
		DebtAsset:       s.cfg.DebtAsset,
		DebtToCover:     debtToCover,
	}

	opp := types.NewOpportunity(types.KindLiquidation, subject, height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindLiquidation)).Inc()
	s.logger.Info("liquidatable-position",
		zap.String("opportunity-id", opp.ID),
		zap.String("borrower", subject.Borrower.Hex()),
		zap.String("health-factor", account.HealthFactor.Dec()),
		zap.String("debt-to-cover", debtToCover.Dec()),
		zap.Uint64("block", height))

	return opp, nil
}

// BuildPlan builds the liquidation call. The debt repayment capital comes
// from the funding provider, which brackets this single step with its
// borrow and repay.
func (s *Liquidation) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.BorrowerSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	steps := []types.Step{
		{
			Target: s.cfg.LendingPool,
			Method: "liquidationCall",
			Args: []any{
				subject.CollateralAsset,
				subject.DebtAsset,
				subject.Borrower,
				subject.DebtToCover.ToBig(),
				false,
			},
		},
	}

	return types.NewExecutionPlan(opp, steps, s.deps.deadline(head)), nil
}

// BorrowRequirement reports the debt asset and amount the funding provider
// must supply.
func (s *Liquidation) BorrowRequirement(opp *types.Opportunity) (common.Address, *uint256.Int, error) {
	subject, ok := opp.Subject.(types.BorrowerSubject)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}
	return subject.DebtAsset, subject.DebtToCover.Clone(), nil
}

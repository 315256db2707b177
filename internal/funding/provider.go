// Package funding supplies transient borrowed capital to execution plans.
package funding

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// ErrNoFacility means no lending facility is configured for the asset.
var ErrNoFacility = errors.New("no funding facility for asset")

// BorrowMethod and RepayMethod are the facility calls bracketing a funded plan.
const (
	BorrowMethod = "flashLoanSimple"
	RepayMethod  = "repay"
)

// Facility is a flash-loan pool for one asset.
type Facility struct {
	Pool   common.Address
	FeeBPS uint64
}

// Provider brackets execution plans with borrowed capital. The borrow is
// always the plan's first step and the repayment its last, so the loan lives
// and dies inside one atomic transaction. The provider never tracks open
// debt across plans; there is none to track.
type Provider struct {
	facilities map[common.Address]Facility
	receiver   common.Address
	logger     *zap.Logger
}

// NewProvider creates a provider over the configured per-asset facilities.
// receiver is the account that takes delivery of borrowed funds.
func NewProvider(facilities map[common.Address]Facility, receiver common.Address, logger *zap.Logger) *Provider {
	return &Provider{
		facilities: facilities,
		receiver:   receiver,
		logger:     logger,
	}
}

// Supports reports whether the asset has a configured facility.
func (p *Provider) Supports(asset common.Address) bool {
	_, ok := p.facilities[asset]
	return ok
}

// Fee returns the facility fee for borrowing the given amount of the asset.
func (p *Provider) Fee(asset common.Address, amount *uint256.Int) (*uint256.Int, error) {
	facility, ok := p.facilities[asset]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", asset.Hex(), ErrNoFacility)
	}
	return types.Fraction(amount, facility.FeeBPS, 10_000), nil
}

// Fund rewrites the plan to run on borrowed capital: a borrow step is
// prepended, a repayment of principal plus fee is appended, and the plan's
// funding record is set. Plans for assets without a facility fail fast,
// before any submission attempt. A plan is funded at most once.
func (p *Provider) Fund(plan *types.ExecutionPlan, asset common.Address, amount *uint256.Int) error {
	if plan.Funding != nil {
		return fmt.Errorf("plan %s is already funded", plan.ID)
	}

	facility, ok := p.facilities[asset]
	if !ok {
		FundingsTotal.WithLabelValues("no-facility").Inc()
		return fmt.Errorf("asset %s: %w", asset.Hex(), ErrNoFacility)
	}

	fee := types.Fraction(amount, facility.FeeBPS, 10_000)
	funding := &types.FundingStep{
		Facility: facility.Pool,
		Asset:    asset,
		Amount:   amount.Clone(),
		Fee:      fee,
	}

	borrow := types.Step{
		Target: facility.Pool,
		Method: BorrowMethod,
		Args:   []any{p.receiver, asset, amount.ToBig(), []byte{}, uint16(0)},
	}
	repay := types.Step{
		Target: facility.Pool,
		Method: RepayMethod,
		Args:   []any{asset, funding.RepayAmount().ToBig(), p.receiver},
	}

	steps := make([]types.Step, 0, len(plan.Steps)+2)
	steps = append(steps, borrow)
	steps = append(steps, plan.Steps...)
	steps = append(steps, repay)

	plan.Steps = steps
	plan.Funding = funding

	FundingsTotal.WithLabelValues("funded").Inc()
	p.logger.Info("plan-funded",
		zap.String("plan-id", plan.ID),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.Dec()),
		zap.String("fee", fee.Dec()))

	return nil
}

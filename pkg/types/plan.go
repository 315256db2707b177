package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// OrderingConstraint is a required relative position to the subject transaction.
type OrderingConstraint int

const (
	// OrderEither places no ordering requirement on the plan.
	OrderEither OrderingConstraint = iota
	// OrderBeforeSubject requires landing strictly before the subject transaction.
	OrderBeforeSubject
	// OrderAfterSubject requires landing strictly after the subject transaction.
	OrderAfterSubject
)

func (o OrderingConstraint) String() string {
	switch o {
	case OrderBeforeSubject:
		return "before-subject"
	case OrderAfterSubject:
		return "after-subject"
	default:
		return "either"
	}
}

// Step is one contract call inside an atomic execution plan.
type Step struct {
	Target common.Address
	Method string
	Args   []any

	// MinOutput reverts the whole plan on-chain if the step yields less.
	MinOutput *uint256.Int

	// UsePriorOutput substitutes the prior step's output amount for the
	// step's input amount argument.
	UsePriorOutput bool
}

// FundingStep describes transient borrowed capital for a plan. The borrow is
// always the first step and the repay the last step of the same plan, so
// atomicity is enforced by the chain rather than by agent bookkeeping.
type FundingStep struct {
	Facility common.Address
	Asset    common.Address
	Amount   *uint256.Int
	Fee      *uint256.Int
}

// RepayAmount is the principal plus the facility fee.
func (f *FundingStep) RepayAmount() *uint256.Int {
	return new(uint256.Int).Add(f.Amount, f.Fee)
}

// ExecutionPlan is an ordered, atomic sequence of on-chain operations derived
// from an accepted opportunity. All steps succeed together or the chain
// reverts the entire plan; it is never partially applied.
type ExecutionPlan struct {
	ID            string
	OpportunityID string
	Kind          StrategyKind

	Steps   []Step
	Funding *FundingStep

	Ordering  OrderingConstraint
	SubjectTx *common.Hash

	// DeadlineBlock is the last chain height at which submission is still
	// meaningful. Past it the plan is discarded, never retried.
	DeadlineBlock uint64

	DetectedAt time.Time

	ExpectedGrossGain *uint256.Int
	EstimatedCost     *uint256.Int
}

// NewExecutionPlan creates a plan promoted from the given opportunity.
func NewExecutionPlan(opp *Opportunity, steps []Step, deadline uint64) *ExecutionPlan {
	return &ExecutionPlan{
		ID:                uuid.New().String(),
		OpportunityID:     opp.ID,
		Kind:              opp.Kind,
		Steps:             steps,
		DeadlineBlock:     deadline,
		DetectedAt:        opp.DetectedAt,
		ExpectedGrossGain: opp.ExpectedGrossGain.Clone(),
		EstimatedCost:     opp.EstimatedCost.Clone(),
	}
}

// ExpectedNetProfit is gain minus cost, clamped at zero.
func (p *ExecutionPlan) ExpectedNetProfit() *uint256.Int {
	return SaturatingSub(p.ExpectedGrossGain, p.EstimatedCost)
}

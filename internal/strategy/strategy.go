// Package strategy implements the six opportunity-detection strategies. Each
// strategy supplies subject extraction, gross-gain estimation and plan
// construction; the scanner drivers and the orchestrator stay
// strategy-agnostic.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
)

// PollStrategy produces candidates by polling contract state at an interval.
type PollStrategy interface {
	Kind() types.StrategyKind
	Interval() time.Duration

	// Poll inspects chain state at the given height and returns zero or
	// more candidates. Errors are per-poll; the scanner logs and continues.
	Poll(ctx context.Context, height uint64) ([]*types.Opportunity, error)
}

// MempoolStrategy produces candidates by inspecting pending transactions.
type MempoolStrategy interface {
	Kind() types.StrategyKind

	// Inspect filters one pending transaction, returning a candidate or
	// nil when the transaction is not interesting.
	Inspect(ctx context.Context, tx *types.PendingTx, height uint64) (*types.Opportunity, error)
}

// PlanBuilder turns an accepted opportunity into an execution plan.
type PlanBuilder interface {
	Kind() types.StrategyKind
	BuildPlan(ctx context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error)
}

// Deps are the shared collaborators injected into every strategy.
type Deps struct {
	Client         chain.Client
	Account        common.Address // funding account, receives swap outputs
	GasLimit       uint64
	DeadlineBlocks uint64
}

// gasCost estimates the native-token cost of one plan at the current fee
// market: suggested gas price times the configured gas limit.
func (d *Deps) gasCost(ctx context.Context) (*uint256.Int, error) {
	price, err := d.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	p, overflow := uint256.FromBig(price)
	if overflow {
		return nil, fmt.Errorf("gas price overflows uint256")
	}

	return p.Mul(p, uint256.NewInt(d.GasLimit)), nil
}

// deadline returns the last height at which submission is still meaningful.
func (d *Deps) deadline(head uint64) uint64 {
	return head + d.DeadlineBlocks
}

// swapDeadline is the on-chain deadline argument for router swaps.
func swapDeadline() *uint256.Int {
	return uint256.NewInt(uint64(time.Now().Add(5 * time.Minute).Unix()))
}

// swapStep builds a swapExactTokensForTokens step with the full ABI argument
// list so the orchestrator can pack every step the same way. minOut may be
// nil for intermediate legs guarded by a later step's MinOutput.
func swapStep(router common.Address, amountIn, minOut *uint256.Int, path []common.Address, to common.Address) types.Step {
	min := uint256.NewInt(0)
	if minOut != nil {
		min = minOut.Clone()
	}
	return types.Step{
		Target:    router,
		Method:    "swapExactTokensForTokens",
		Args:      []any{amountIn.ToBig(), min.ToBig(), path, to, swapDeadline().ToBig()},
		MinOutput: minOut,
	}
}

// priorOutputSwapStep builds a swap whose input amount is the prior step's
// output. The amount argument is a placeholder substituted at execution.
func priorOutputSwapStep(router common.Address, minOut *uint256.Int, path []common.Address, to common.Address) types.Step {
	step := swapStep(router, uint256.NewInt(0), minOut, path, to)
	step.UsePriorOutput = true
	return step
}

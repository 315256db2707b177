package strategy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// frontrunCaptureBPS is the assumed share of the subject's value captured by
// trading ahead of its price impact. Deliberately conservative; the
// evaluator's cost model does the real gating.
const frontrunCaptureBPS = 50

// Frontrun watches the mempool for large swaps against the configured router
// and races a buy in ahead of them.
type Frontrun struct {
	cfg    config.FrontrunConfig
	deps   Deps
	logger *zap.Logger
}

// NewFrontrun creates the front-running strategy.
func NewFrontrun(cfg config.FrontrunConfig, deps Deps, logger *zap.Logger) *Frontrun {
	return &Frontrun{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *Frontrun) Kind() types.StrategyKind { return types.KindFrontrun }

// Inspect filters for transactions to the watched router whose value clears
// the threshold. The gross gain is a capture-ratio heuristic on the
// subject's value.
func (s *Frontrun) Inspect(ctx context.Context, tx *types.PendingTx, height uint64) (*types.Opportunity, error) {
	if tx.To == nil || *tx.To != s.cfg.Router {
		return nil, nil
	}
	if tx.Value.Lt(s.cfg.MinTxValue) {
		return nil, nil
	}

	gain := types.Fraction(tx.Value, frontrunCaptureBPS, 10_000)
	cost, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}

	opp := types.NewOpportunity(types.KindFrontrun, tx.Subject(), height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindFrontrun)).Inc()
	s.logger.Info("large-pending-swap",
		zap.String("opportunity-id", opp.ID),
		zap.String("subject-tx", tx.Hash.Hex()),
		zap.String("subject-value", tx.Value.Dec()),
		zap.Uint64("block", height))

	return opp, nil
}

// BuildPlan builds a single swap ordered strictly before the subject. The
// trade size follows the capture heuristic so a failed race caps the loss.
func (s *Frontrun) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.PendingTxSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	tradeAmount := types.Fraction(subject.Value, frontrunCaptureBPS*10, 10_000)
	if tradeAmount.IsZero() {
		tradeAmount = uint256.NewInt(1)
	}

	steps := []types.Step{
		swapStep(s.cfg.Router, tradeAmount, nil,
			[]common.Address{s.cfg.TokenIn, s.cfg.TokenOut}, s.deps.Account),
	}

	plan := types.NewExecutionPlan(opp, steps, s.deps.deadline(head))
	plan.Ordering = types.OrderBeforeSubject
	hash := subject.Hash
	plan.SubjectTx = &hash

	return plan, nil
}

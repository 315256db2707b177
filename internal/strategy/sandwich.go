package strategy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// sandwichCaptureBPS is the assumed share of the subject's value captured by
// bracketing its price impact.
const sandwichCaptureBPS = 80

// Sandwich watches the mempool for large swaps and brackets them: a buy leg
// positioned ahead of the subject and a sell leg behind it, both inside one
// atomic plan.
type Sandwich struct {
	cfg    config.SandwichConfig
	deps   Deps
	logger *zap.Logger
}

// NewSandwich creates the sandwiching strategy.
func NewSandwich(cfg config.SandwichConfig, deps Deps, logger *zap.Logger) *Sandwich {
	return &Sandwich{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Kind returns the strategy kind.
func (s *Sandwich) Kind() types.StrategyKind { return types.KindSandwich }

// Inspect filters for transactions to the front router above the value
// threshold.
func (s *Sandwich) Inspect(ctx context.Context, tx *types.PendingTx, height uint64) (*types.Opportunity, error) {
	if tx.To == nil || *tx.To != s.cfg.FrontRouter {
		return nil, nil
	}
	if tx.Value.Lt(s.cfg.MinTxValue) {
		return nil, nil
	}

	gain := types.Fraction(tx.Value, sandwichCaptureBPS, 10_000)
	cost, err := s.deps.gasCost(ctx)
	if err != nil {
		return nil, err
	}

	opp := types.NewOpportunity(types.KindSandwich, tx.Subject(), height, gain, cost)
	OpportunitiesTotal.WithLabelValues(string(types.KindSandwich)).Inc()
	s.logger.Info("sandwich-candidate",
		zap.String("opportunity-id", opp.ID),
		zap.String("subject-tx", tx.Hash.Hex()),
		zap.String("subject-value", tx.Value.Dec()),
		zap.Uint64("block", height))

	return opp, nil
}

// BuildPlan builds the two bracket legs as one atomic unit. The buy leg's
// size tracks the capture heuristic; the sell leg consumes the buy leg's
// output and must at least return the buy amount. The plan races to land
// ahead of the subject; relative ordering beyond the fee bid is best effort.
func (s *Sandwich) BuildPlan(_ context.Context, opp *types.Opportunity, head uint64) (*types.ExecutionPlan, error) {
	subject, ok := opp.Subject.(types.PendingTxSubject)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: unexpected subject %T", opp.ID, opp.Subject)
	}

	buyAmount := types.Fraction(subject.Value, sandwichCaptureBPS*10, 10_000)

	steps := []types.Step{
		swapStep(s.cfg.FrontRouter, buyAmount, nil,
			[]common.Address{s.cfg.TokenIn, s.cfg.TokenOut}, s.deps.Account),
		priorOutputSwapStep(s.cfg.BackRouter, buyAmount,
			[]common.Address{s.cfg.TokenOut, s.cfg.TokenIn}, s.deps.Account),
	}

	plan := types.NewExecutionPlan(opp, steps, s.deps.deadline(head))
	plan.Ordering = types.OrderBeforeSubject
	hash := subject.Hash
	plan.SubjectTx = &hash

	return plan, nil
}

package orchestrator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/internal/evaluator"
	"github.com/mselser95/chainhawk/internal/funding"
	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pipelineWorkers bounds how many plans execute concurrently. Submissions
// still serialize through the account's nonce sequence.
const pipelineWorkers = 4

// BorrowRequirer is implemented by plan builders whose plans run on
// borrowed capital.
type BorrowRequirer interface {
	BorrowRequirement(opp *types.Opportunity) (common.Address, *uint256.Int, error)
}

// Reporter receives terminal results. Reporting must never block execution.
type Reporter interface {
	Report(res *Result)
}

// Pipeline consumes scanner candidates and walks each through evaluation,
// plan construction, funding and execution.
type Pipeline struct {
	in       <-chan *types.Opportunity
	eval     *evaluator.Evaluator
	builders map[types.StrategyKind]strategy.PlanBuilder
	funding  *funding.Provider
	engine   *Engine
	client   chain.Client
	reporter Reporter
	logger   *zap.Logger
}

// NewPipeline wires the stages together.
func NewPipeline(
	in <-chan *types.Opportunity,
	eval *evaluator.Evaluator,
	builders map[types.StrategyKind]strategy.PlanBuilder,
	fundingProvider *funding.Provider,
	engine *Engine,
	client chain.Client,
	reporter Reporter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		in:       in,
		eval:     eval,
		builders: builders,
		funding:  fundingProvider,
		engine:   engine,
		client:   client,
		reporter: reporter,
		logger:   logger,
	}
}

// Run processes candidates until the context is cancelled. A failure on one
// candidate never affects the others.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < pipelineWorkers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case opp, ok := <-p.in:
					if !ok {
						return nil
					}
					p.handle(ctx, opp)
				}
			}
		})
	}

	return g.Wait()
}

func (p *Pipeline) handle(ctx context.Context, opp *types.Opportunity) {
	height, err := p.client.BlockNumber(ctx)
	if err != nil {
		p.logger.Warn("height-query-failed", zap.String("opportunity-id", opp.ID), zap.Error(err))
		return
	}

	decision := p.eval.Evaluate(opp, height)
	if !decision.Accepted {
		return
	}

	plan, err := p.buildPlan(ctx, opp, height)
	if err != nil {
		PlanBuildFailuresTotal.Inc()
		p.logger.Warn("plan-build-failed",
			zap.String("opportunity-id", opp.ID),
			zap.String("kind", string(opp.Kind)),
			zap.Error(err))
		return
	}

	res := p.engine.Execute(ctx, plan)
	if p.reporter != nil {
		p.reporter.Report(res)
	}
}

func (p *Pipeline) buildPlan(ctx context.Context, opp *types.Opportunity, height uint64) (*types.ExecutionPlan, error) {
	builder, ok := p.builders[opp.Kind]
	if !ok {
		return nil, fmt.Errorf("no plan builder for kind %s", opp.Kind)
	}

	plan, err := builder.BuildPlan(ctx, opp, height)
	if err != nil {
		return nil, err
	}

	// Borrow-funded kinds get their capital bracketed in before execution.
	if requirer, ok := builder.(BorrowRequirer); ok {
		asset, amount, err := requirer.BorrowRequirement(opp)
		if err != nil {
			return nil, fmt.Errorf("borrow requirement: %w", err)
		}
		if err := p.funding.Fund(plan, asset, amount); err != nil {
			return nil, fmt.Errorf("fund plan: %w", err)
		}
	}

	return plan, nil
}

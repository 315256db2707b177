// Package scanner drives the strategies: interval pollers over chain state
// and a watcher over the pending-transaction feed. Both emit into the shared
// opportunity channel and never terminate on per-candidate failures.
package scanner

import (
	"context"
	"time"

	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// Poller runs one PollStrategy on its configured interval.
type Poller struct {
	strat  strategy.PollStrategy
	client chain.Client
	out    chan<- *types.Opportunity
	logger *zap.Logger
}

// NewPoller creates a poller emitting into out.
func NewPoller(
	strat strategy.PollStrategy,
	client chain.Client,
	out chan<- *types.Opportunity,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		strat:  strat,
		client: client,
		out:    out,
		logger: logger,
	}
}

// Run polls until the context is cancelled. A failed poll is logged and the
// loop continues; one bad tick never stops the scan.
func (p *Poller) Run(ctx context.Context) error {
	kind := string(p.strat.Kind())
	p.logger.Info("scanner-started",
		zap.String("kind", kind),
		zap.Duration("interval", p.strat.Interval()))

	ticker := time.NewTicker(p.strat.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scanner-stopped", zap.String("kind", kind))
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx, kind)
		}
	}
}

func (p *Poller) tick(ctx context.Context, kind string) {
	height, err := p.client.BlockNumber(ctx)
	if err != nil {
		PollFailuresTotal.WithLabelValues(kind).Inc()
		p.logger.Warn("height-query-failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	opps, err := p.strat.Poll(ctx, height)
	if err != nil {
		PollFailuresTotal.WithLabelValues(kind).Inc()
		p.logger.Warn("poll-failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	for _, opp := range opps {
		emit(p.out, opp, p.logger)
	}
}

// emit forwards an opportunity without blocking the scan loop. Opportunities
// are perishable; when the pipeline is saturated, dropping is better than
// delivering stale work.
func emit(out chan<- *types.Opportunity, opp *types.Opportunity, logger *zap.Logger) {
	select {
	case out <- opp:
		EmittedTotal.WithLabelValues(string(opp.Kind)).Inc()
	default:
		DroppedTotal.WithLabelValues(string(opp.Kind)).Inc()
		logger.Warn("opportunity-channel-full",
			zap.String("kind", string(opp.Kind)),
			zap.String("opportunity-id", opp.ID))
	}
}

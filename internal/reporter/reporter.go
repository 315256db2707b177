// Package reporter turns terminal execution results into outcome events and
// keeps the running profit-and-loss ledger.
package reporter

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/mselser95/chainhawk/internal/orchestrator"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// sinkTimeout bounds a single sink delivery so a stuck database never
// accumulates goroutines.
const sinkTimeout = 10 * time.Second

// recentCapacity bounds the in-memory outcome window served over the API.
const recentCapacity = 256

// Sink receives outcome events. Deliveries are best effort; a failing sink
// is logged and never retried.
type Sink interface {
	SaveOutcome(ctx context.Context, event *types.OutcomeEvent) error
}

// Reporter records every terminal plan exactly once, maintains cumulative
// realized profit, and fans events out to the configured sinks without
// blocking execution.
type Reporter struct {
	sinks  []Sink
	logger *zap.Logger

	mu         sync.Mutex
	seen       map[string]struct{}
	cumulative *big.Int
	recent     []*types.OutcomeEvent

	wg sync.WaitGroup
}

// New creates a reporter fanning out to the given sinks.
func New(sinks []Sink, logger *zap.Logger) *Reporter {
	return &Reporter{
		sinks:      sinks,
		logger:     logger,
		seen:       make(map[string]struct{}),
		cumulative: big.NewInt(0),
	}
}

// Report records one terminal result. Repeated results for the same plan are
// dropped: each plan contributes to the ledger exactly once.
func (r *Reporter) Report(res *orchestrator.Result) {
	event := &types.OutcomeEvent{
		PlanID:       res.Plan.ID,
		Kind:         res.Plan.Kind,
		Outcome:      res.Outcome,
		Realized:     new(big.Int).Set(res.Realized),
		AttemptCount: len(res.Attempts),
		DetectedAt:   res.Plan.DetectedAt,
		CompletedAt:  res.CompletedAt,
		Reason:       res.Reason,
	}

	if !r.record(event) {
		r.logger.Warn("duplicate-outcome-dropped", zap.String("plan-id", event.PlanID))
		return
	}

	EventsTotal.WithLabelValues(string(event.Outcome)).Inc()

	r.logger.Info("outcome-reported",
		zap.String("plan-id", event.PlanID),
		zap.String("kind", string(event.Kind)),
		zap.String("outcome", string(event.Outcome)),
		zap.String("realized", event.Realized.String()),
		zap.Int("attempts", event.AttemptCount))

	for _, sink := range r.sinks {
		r.wg.Add(1)
		go func(s Sink) {
			defer r.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			defer cancel()
			if err := s.SaveOutcome(ctx, event); err != nil {
				SinkFailuresTotal.Inc()
				r.logger.Warn("outcome-sink-failed",
					zap.String("plan-id", event.PlanID),
					zap.Error(err))
			}
		}(sink)
	}
}

// record applies the event to the ledger under the lock. It returns false
// for a plan that was already recorded.
func (r *Reporter) record(event *types.OutcomeEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[event.PlanID]; dup {
		return false
	}
	r.seen[event.PlanID] = struct{}{}

	r.cumulative.Add(r.cumulative, event.Realized)
	cum, _ := new(big.Float).SetInt(r.cumulative).Float64()
	CumulativeProfit.Set(cum)

	r.recent = append(r.recent, event)
	if len(r.recent) > recentCapacity {
		r.recent = r.recent[len(r.recent)-recentCapacity:]
	}

	return true
}

// Cumulative returns the running realized profit or loss across all
// reported plans.
func (r *Reporter) Cumulative() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return new(big.Int).Set(r.cumulative)
}

// Recent returns the most recent outcome events, newest last.
func (r *Reporter) Recent() []*types.OutcomeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.OutcomeEvent, len(r.recent))
	copy(out, r.recent)
	return out
}

// Flush waits for in-flight sink deliveries. Called on shutdown.
func (r *Reporter) Flush() {
	r.wg.Wait()
}

package reporter

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/internal/orchestrator"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingSink captures delivered events.
type recordingSink struct {
	mu     sync.Mutex
	events []*types.OutcomeEvent
}

func (s *recordingSink) SaveOutcome(_ context.Context, event *types.OutcomeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) delivered() []*types.OutcomeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.OutcomeEvent, len(s.events))
	copy(out, s.events)
	return out
}

type failingSink struct{}

func (failingSink) SaveOutcome(context.Context, *types.OutcomeEvent) error {
	return errors.New("database unavailable")
}

func testResult(planID string, outcome types.PlanOutcome, realized int64) *orchestrator.Result {
	return &orchestrator.Result{
		Plan: &types.ExecutionPlan{
			ID:                planID,
			OpportunityID:     "opp-" + planID,
			Kind:              types.KindArbitrage,
			DeadlineBlock:     100,
			DetectedAt:        time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
			ExpectedGrossGain: uint256.NewInt(500),
			EstimatedCost:     uint256.NewInt(300),
		},
		Outcome:     outcome,
		Realized:    big.NewInt(realized),
		CompletedAt: time.Date(2025, 11, 2, 10, 0, 12, 0, time.UTC),
	}
}

func TestReportDeliversToSinks(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := New([]Sink{sink}, zaptest.NewLogger(t))

	r.Report(testResult("plan-1", types.PlanConfirmed, 200))
	r.Flush()

	events := sink.delivered()
	require.Len(t, events, 1)
	assert.Equal(t, "plan-1", events[0].PlanID)
	assert.Equal(t, types.PlanConfirmed, events[0].Outcome)
	assert.Equal(t, big.NewInt(200), events[0].Realized)
}

func TestReportExactlyOncePerPlan(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := New([]Sink{sink}, zaptest.NewLogger(t))

	res := testResult("plan-1", types.PlanConfirmed, 200)
	r.Report(res)
	r.Report(res)
	r.Flush()

	assert.Len(t, sink.delivered(), 1)
	assert.Equal(t, big.NewInt(200), r.Cumulative())
	assert.Len(t, r.Recent(), 1)
}

func TestCumulativeProfitAndLoss(t *testing.T) {
	t.Parallel()

	r := New(nil, zaptest.NewLogger(t))

	r.Report(testResult("plan-1", types.PlanConfirmed, 200))
	r.Report(testResult("plan-2", types.PlanReverted, -50))
	r.Report(testResult("plan-3", types.PlanExpired, 0))

	assert.Equal(t, big.NewInt(150), r.Cumulative())

	recent := r.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "plan-1", recent[0].PlanID)
	assert.Equal(t, "plan-3", recent[2].PlanID)
}

func TestFailingSinkDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := New([]Sink{failingSink{}, sink}, zaptest.NewLogger(t))

	r.Report(testResult("plan-1", types.PlanConfirmed, 200))
	r.Flush()

	// The healthy sink still got the event and the ledger still advanced.
	assert.Len(t, sink.delivered(), 1)
	assert.Equal(t, big.NewInt(200), r.Cumulative())
}

func TestRecentWindowBounded(t *testing.T) {
	t.Parallel()

	r := New(nil, zaptest.NewLogger(t))

	for i := 0; i < recentCapacity+10; i++ {
		r.Report(testResult("plan-"+strconv.Itoa(i), types.PlanConfirmed, 1))
	}

	recent := r.Recent()
	assert.Len(t, recent, recentCapacity)
	// Oldest entries were evicted; the newest survives.
	assert.Equal(t, "plan-265", recent[len(recent)-1].PlanID)
}

package evaluator

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	return New(Config{
		SlippageBPS:      0,
		StaleAfterBlocks: 3,
	}, zaptest.NewLogger(t))
}

func pairOpportunity(gross, cost uint64, observedAt uint64) *types.Opportunity {
	return types.NewOpportunity(types.KindArbitrage, types.TokenPairSubject{
		TokenIn:  common.HexToAddress("0x01"),
		TokenOut: common.HexToAddress("0x02"),
	}, observedAt, uint256.NewInt(gross), uint256.NewInt(cost))
}

func TestEvaluateAcceptsProfitable(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	decision := e.Evaluate(pairOpportunity(500, 300, 100), 100)
	require.True(t, decision.Accepted)
	assert.Equal(t, "200", decision.ExpectedNet.Dec())
	assert.Equal(t, "300", decision.TotalCost.Dec())
}

func TestEvaluateRejectsUnprofitable(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	decision := e.Evaluate(pairOpportunity(100, 300, 100), 100)
	require.False(t, decision.Accepted)
	assert.Equal(t, ReasonUnprofitable, decision.Reason)
	assert.True(t, decision.ExpectedNet.IsZero())
}

func TestEvaluateRejectsBreakEven(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	// Net of exactly zero is not worth the execution risk.
	decision := e.Evaluate(pairOpportunity(300, 300, 100), 100)
	require.False(t, decision.Accepted)
	assert.Equal(t, ReasonUnprofitable, decision.Reason)
}

func TestEvaluateSlippageAllowance(t *testing.T) {
	t.Parallel()

	e := New(Config{
		SlippageBPS:      100, // 1%
		StaleAfterBlocks: 3,
	}, zaptest.NewLogger(t))

	// gross 10000, cost 9800, slippage allowance 100 -> net 100
	decision := e.Evaluate(pairOpportunity(10_000, 9_800, 100), 100)
	require.True(t, decision.Accepted)
	assert.Equal(t, "100", decision.ExpectedNet.Dec())
	assert.Equal(t, "9900", decision.TotalCost.Dec())

	// slippage pushes it under water: cost 9950 + allowance 100 > 10000
	decision = e.Evaluate(pairOpportunity(10_000, 9_950, 100), 100)
	require.False(t, decision.Accepted)
	assert.Equal(t, ReasonUnprofitable, decision.Reason)
}

func TestEvaluateRejectsStale(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	tests := []struct {
		name       string
		observedAt uint64
		head       uint64
		wantStale  bool
	}{
		{name: "same-block", observedAt: 100, head: 100, wantStale: false},
		{name: "at-threshold", observedAt: 100, head: 103, wantStale: false},
		{name: "past-threshold", observedAt: 100, head: 104, wantStale: true},
		{name: "far-behind", observedAt: 100, head: 200, wantStale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decision := e.Evaluate(pairOpportunity(500, 300, tt.observedAt), tt.head)
			if tt.wantStale {
				require.False(t, decision.Accepted)
				assert.Equal(t, ReasonStale, decision.Reason)
			} else {
				assert.True(t, decision.Accepted)
			}
		})
	}
}

func TestEvaluateRejectsUnsupportedSubject(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	opp := types.NewOpportunity(types.KindArbitrage, "not-a-subject", 100,
		uint256.NewInt(500), uint256.NewInt(300))

	decision := e.Evaluate(opp, 100)
	require.False(t, decision.Accepted)
	assert.Equal(t, ReasonUnsupportedSubject, decision.Reason)
}

func TestEvaluateNeverUnderflows(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t)

	// Cost wildly above gain must clamp to zero, not wrap around.
	decision := e.Evaluate(pairOpportunity(1, ^uint64(0), 100), 100)
	require.False(t, decision.Accepted)
	assert.True(t, decision.ExpectedNet.IsZero())
}

package funding

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	poolAddr     = common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
	daiAddr      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	receiverAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	routerAddr   = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	return NewProvider(map[common.Address]Facility{
		daiAddr: {Pool: poolAddr, FeeBPS: 9},
	}, receiverAddr, zaptest.NewLogger(t))
}

func swapPlan() *types.ExecutionPlan {
	opp := types.NewOpportunity(types.KindFlashloanArbitrage, types.TokenPairSubject{},
		100, uint256.NewInt(500), uint256.NewInt(300))
	return types.NewExecutionPlan(opp, []types.Step{
		{Target: routerAddr, Method: "swapExactTokensForTokens"},
		{Target: routerAddr, Method: "swapExactTokensForTokens", UsePriorOutput: true},
	}, 105)
}

func TestFundBracketsPlan(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t)
	plan := swapPlan()

	amount := uint256.NewInt(1_000_000)
	require.NoError(t, p.Fund(plan, daiAddr, amount))

	// Borrow strictly first, repay strictly last, swaps untouched in between.
	require.Len(t, plan.Steps, 4)
	assert.Equal(t, BorrowMethod, plan.Steps[0].Method)
	assert.Equal(t, "swapExactTokensForTokens", plan.Steps[1].Method)
	assert.Equal(t, "swapExactTokensForTokens", plan.Steps[2].Method)
	assert.Equal(t, RepayMethod, plan.Steps[3].Method)

	borrows, repays := 0, 0
	for _, step := range plan.Steps {
		switch step.Method {
		case BorrowMethod:
			borrows++
		case RepayMethod:
			repays++
		}
	}
	assert.Equal(t, 1, borrows)
	assert.Equal(t, 1, repays)
}

func TestFundRecordsFee(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t)
	plan := swapPlan()

	// 9 bps of 1,000,000 is 900
	require.NoError(t, p.Fund(plan, daiAddr, uint256.NewInt(1_000_000)))

	require.NotNil(t, plan.Funding)
	assert.Equal(t, poolAddr, plan.Funding.Facility)
	assert.Equal(t, "1000000", plan.Funding.Amount.Dec())
	assert.Equal(t, "900", plan.Funding.Fee.Dec())
	assert.Equal(t, "1000900", plan.Funding.RepayAmount().Dec())
}

func TestFundUnconfiguredAssetFailsFast(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t)
	plan := swapPlan()

	unknown := common.HexToAddress("0x9999999999999999999999999999999999999999")
	err := p.Fund(plan, unknown, uint256.NewInt(1_000_000))
	require.ErrorIs(t, err, ErrNoFacility)

	// Plan must be left untouched on failure.
	assert.Nil(t, plan.Funding)
	assert.Len(t, plan.Steps, 2)
}

func TestFundRejectsDoubleFunding(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t)
	plan := swapPlan()

	require.NoError(t, p.Fund(plan, daiAddr, uint256.NewInt(1_000)))
	err := p.Fund(plan, daiAddr, uint256.NewInt(1_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already funded")
}

func TestSupports(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t)
	assert.True(t, p.Supports(daiAddr))
	assert.False(t, p.Supports(common.HexToAddress("0x01")))
}

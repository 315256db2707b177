package orchestrator

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/internal/testutil"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/mselser95/chainhawk/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	routerAddr   = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	executorAddr = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func testEngine(t *testing.T, client *testutil.ChainClient) (*Engine, *[]time.Duration) {
	t.Helper()

	account, err := wallet.New(testKey, zaptest.NewLogger(t))
	require.NoError(t, err)

	e := New(Config{
		MaxRetries:          3,
		RetryBaseDelay:      time.Second,
		RetryMaxDelay:       30 * time.Second,
		FeePremiumBPS:       1500,
		ConfirmPollInterval: time.Millisecond,
		GasLimit:            500_000,
		ExecutorContract:    executorAddr,
	}, client, account, nil, zaptest.NewLogger(t))

	// Record backoff delays instead of sleeping.
	slept := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}

	return e, slept
}

// singleStepPlan builds a plan whose calldata packs without an executor.
func singleStepPlan(gain, cost uint64, deadline uint64) *types.ExecutionPlan {
	opp := types.NewOpportunity(types.KindArbitrage, types.TokenPairSubject{},
		100, uint256.NewInt(gain), uint256.NewInt(cost))
	steps := []types.Step{
		{
			Target: routerAddr,
			Method: "swapExactTokensForTokens",
			Args: []any{
				big.NewInt(1000),
				big.NewInt(0),
				[]common.Address{{0x01}, {0x02}},
				common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
				big.NewInt(9_999_999_999),
			},
		},
	}
	return types.NewExecutionPlan(opp, steps, deadline)
}

func confirmedReceipt() *gethtypes.Receipt {
	return &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful, GasUsed: 150_000}
}

func TestExecuteConfirmedFirstAttempt(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		TransactionReceiptFn: func(context.Context, common.Hash) (*gethtypes.Receipt, error) {
			return confirmedReceipt(), nil
		},
	}
	e, slept := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 105))

	assert.Equal(t, types.PlanConfirmed, res.Outcome)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, types.AttemptConfirmed, res.Attempts[0].Outcome)
	// Realized profit is gain minus cost.
	assert.Equal(t, big.NewInt(200), res.Realized)
	assert.Empty(t, *slept)
	assert.Len(t, client.SentTransactions(), 1)
}

func TestExecuteSimulationRevertAbandonsWithoutAttempts(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		SimulateCallFn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
			return nil, &types.SimulationRevertError{Reason: "INSUFFICIENT_OUTPUT_AMOUNT"}
		},
	}
	e, _ := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 105))

	assert.Equal(t, types.PlanAbandoned, res.Outcome)
	// No attempt was created and no gas was spent.
	assert.Empty(t, res.Attempts)
	assert.Empty(t, client.SentTransactions())
}

func TestExecuteRetriesExceededAfterTransientErrors(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		SendTransactionFn: func(context.Context, *gethtypes.Transaction) error {
			return types.Transient("send transaction", context.DeadlineExceeded)
		},
	}
	e, slept := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 200))

	assert.Equal(t, types.PlanRetriesExceeded, res.Outcome)
	require.Len(t, res.Attempts, 3)
	for _, attempt := range res.Attempts {
		assert.Equal(t, types.AttemptError, attempt.Outcome)
	}
	// Backoff between the three attempts: base, then 2x base.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestExecuteExpiredWhilePendingNeverResubmits(t *testing.T) {
	t.Parallel()

	// Receipt never appears; height passes the deadline while pending.
	height := uint64(100)
	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) {
			height += 3
			return height, nil
		},
	}
	e, _ := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 110))

	assert.Equal(t, types.PlanExpired, res.Outcome)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, types.AttemptDropped, res.Attempts[0].Outcome)
	// Expiry is terminal: exactly one submission ever went out.
	assert.Len(t, client.SentTransactions(), 1)
}

func TestExecuteExpiredBeforeSubmission(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 200, nil },
	}
	e, _ := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 105))

	assert.Equal(t, types.PlanExpired, res.Outcome)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, client.SentTransactions())
}

func TestExecuteAbandonsWhenSubjectGone(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		TransactionByHashFn: func(context.Context, common.Hash) (*gethtypes.Transaction, bool, error) {
			return nil, false, ethereum.NotFound
		},
	}
	e, _ := testEngine(t, client)

	plan := singleStepPlan(500, 300, 105)
	plan.Ordering = types.OrderBeforeSubject
	subject := common.HexToHash("0xdead")
	plan.SubjectTx = &subject

	res := e.Execute(context.Background(), plan)

	assert.Equal(t, types.PlanAbandoned, res.Outcome)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, client.SentTransactions())
}

func TestExecuteAbandonsWhenSubjectMined(t *testing.T) {
	t.Parallel()

	minedTx := gethtypes.NewTransaction(0, routerAddr, big.NewInt(1), 21000, big.NewInt(1), nil)
	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		TransactionByHashFn: func(context.Context, common.Hash) (*gethtypes.Transaction, bool, error) {
			return minedTx, false, nil
		},
	}
	e, _ := testEngine(t, client)

	plan := singleStepPlan(500, 300, 105)
	plan.Ordering = types.OrderBeforeSubject
	subject := common.HexToHash("0xdead")
	plan.SubjectTx = &subject

	res := e.Execute(context.Background(), plan)
	assert.Equal(t, types.PlanAbandoned, res.Outcome)
}

func TestExecuteRevertedOnChainIsTerminal(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		TransactionReceiptFn: func(context.Context, common.Hash) (*gethtypes.Receipt, error) {
			return &gethtypes.Receipt{Status: gethtypes.ReceiptStatusFailed, GasUsed: 100_000}, nil
		},
	}
	e, _ := testEngine(t, client)

	res := e.Execute(context.Background(), singleStepPlan(500, 300, 105))

	assert.Equal(t, types.PlanReverted, res.Outcome)
	require.Len(t, res.Attempts, 1)
	// One revert, one submission: the loss is the gas burned.
	assert.Negative(t, res.Realized.Sign())
	assert.Len(t, client.SentTransactions(), 1)
}

func TestFeeBidEscalation(t *testing.T) {
	t.Parallel()

	gasPrice := big.NewInt(100)
	client := &testutil.ChainClient{
		SuggestGasPriceFn: func(context.Context) (*big.Int, error) {
			return new(big.Int).Set(gasPrice), nil
		},
	}
	e, _ := testEngine(t, client)

	t.Run("competitive-premium", func(t *testing.T) {
		t.Parallel()

		bid, err := e.nextFeeBid(context.Background(), types.KindSandwich, nil)
		require.NoError(t, err)
		// 100 plus a 15% premium.
		assert.Equal(t, "115", bid.Dec())
	})

	t.Run("plain-kind-no-premium", func(t *testing.T) {
		t.Parallel()

		bid, err := e.nextFeeBid(context.Background(), types.KindArbitrage, nil)
		require.NoError(t, err)
		assert.Equal(t, "100", bid.Dec())
	})

	t.Run("never-decreases", func(t *testing.T) {
		t.Parallel()

		prev := uint256.NewInt(200)
		bid, err := e.nextFeeBid(context.Background(), types.KindArbitrage, prev)
		require.NoError(t, err)
		// Network says 100 but the previous bid was 200: bump 12.5% instead.
		assert.Equal(t, "225", bid.Dec())
		assert.True(t, bid.Gt(prev))
	})
}

func TestNonceOrderAcrossPlans(t *testing.T) {
	t.Parallel()

	client := &testutil.ChainClient{
		BlockNumberFn: func(context.Context) (uint64, error) { return 100, nil },
		TransactionReceiptFn: func(context.Context, common.Hash) (*gethtypes.Receipt, error) {
			return confirmedReceipt(), nil
		},
	}
	e, _ := testEngine(t, client)

	// Two plans through the same account: submissions must carry strictly
	// increasing nonces in acceptance order.
	first := e.Execute(context.Background(), singleStepPlan(500, 300, 105))
	second := e.Execute(context.Background(), singleStepPlan(600, 300, 105))
	require.Equal(t, types.PlanConfirmed, first.Outcome)
	require.Equal(t, types.PlanConfirmed, second.Outcome)

	sent := client.SentTransactions()
	require.Len(t, sent, 2)
	assert.Equal(t, uint64(0), sent[0].Nonce())
	assert.Equal(t, uint64(1), sent[1].Nonce())
}

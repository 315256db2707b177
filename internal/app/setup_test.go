package app

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/internal/storage"
	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/internal/testutil"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	usdcAddr = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	daiAddr  = common.HexToAddress("0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063")
	poolAddr = common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD")
)

func testDeps() strategy.Deps {
	return strategy.Deps{
		Client:         &testutil.ChainClient{},
		GasLimit:       500_000,
		DeadlineBlocks: 5,
	}
}

func TestBuildStrategiesNoneEnabled(t *testing.T) {
	t.Parallel()

	set := buildStrategies(&config.Config{}, testDeps(), nil, zaptest.NewLogger(t))

	assert.Empty(t, set.pollers)
	assert.Empty(t, set.mempool)
	assert.Empty(t, set.builders)
	assert.Empty(t, set.facilities)
}

func TestBuildStrategiesFullSet(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Arbitrage:   config.ArbitrageConfig{Enabled: true},
		Flashloan:   config.FlashloanConfig{Enabled: true, Asset: usdcAddr, LendingPool: poolAddr, BorrowFeeBPS: 9},
		Frontrun:    config.FrontrunConfig{Enabled: true},
		Liquidation: config.LiquidationConfig{Enabled: true, DebtAsset: daiAddr, LendingPool: poolAddr, BorrowFeeBPS: 9},
		Sandwich:    config.SandwichConfig{Enabled: true},
		HFT:         config.HFTConfig{Enabled: true},
	}

	set := buildStrategies(cfg, testDeps(), nil, zaptest.NewLogger(t))

	// Arbitrage, flashloan, liquidation and HFT poll; the ordering plays watch
	// the mempool.
	assert.Len(t, set.pollers, 4)
	assert.Len(t, set.mempool, 2)
	assert.Len(t, set.builders, 6)

	for _, kind := range []types.StrategyKind{
		types.KindArbitrage, types.KindFlashloanArbitrage, types.KindFrontrun,
		types.KindLiquidation, types.KindSandwich, types.KindHFT,
	} {
		assert.Contains(t, set.builders, kind)
	}

	// Both borrow-funded strategies contributed their lending facility.
	require.Contains(t, set.facilities, usdcAddr)
	require.Contains(t, set.facilities, daiAddr)
	assert.Equal(t, poolAddr, set.facilities[usdcAddr].Pool)
	assert.Equal(t, uint64(9), set.facilities[daiAddr].FeeBPS)
}

func TestSetupStorageConsoleDefault(t *testing.T) {
	t.Parallel()

	store, err := setupStorage(&config.Config{StorageMode: "console"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &storage.ConsoleStorage{}, store)
}

func TestSetupBreakerDisabled(t *testing.T) {
	t.Parallel()

	breaker, err := setupBreaker(&config.Config{}, &testutil.ChainClient{}, common.Address{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, breaker)
}

func TestSetupBreakerInvalidMinBalance(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CircuitBreakerEnabled:       true,
		CircuitBreakerCheckInterval: time.Minute,
		CircuitBreakerMinBalanceWei: "not-a-number",
	}

	_, err := setupBreaker(cfg, &testutil.ChainClient{}, common.Address{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "CIRCUIT_BREAKER_MIN_BALANCE_WEI")
}

func TestSetupBreakerEnabled(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CircuitBreakerEnabled:       true,
		CircuitBreakerCheckInterval: time.Minute,
		CircuitBreakerMinBalanceWei: "1000000000000000000",
	}

	breaker, err := setupBreaker(cfg, &testutil.ChainClient{}, common.Address{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, breaker)
	assert.True(t, breaker.Allow())
}

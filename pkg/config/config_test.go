package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, uint64(100), cfg.SlippageBPS)
	assert.Equal(t, "console", cfg.StorageMode)
	assert.False(t, cfg.Arbitrage.Enabled)
	assert.False(t, cfg.Sandwich.Enabled)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("EXEC_MAX_RETRIES", "5")
	t.Setenv("EXEC_RETRY_BASE_DELAY", "250ms")
	t.Setenv("EVAL_SLIPPAGE_BPS", "50")
	t.Setenv("ARB_PROBE_AMOUNT", "2500000000000000000")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, uint64(50), cfg.SlippageBPS)
	assert.Equal(t, "2500000000000000000", cfg.Arbitrage.ProbeAmount.Dec())
}

func TestValidateRejectsEnabledStrategyWithoutAddresses(t *testing.T) {
	t.Setenv("ARB_ENABLED", "true")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARB_")
}

func TestValidateRejectsMempoolStrategyWithoutWSURL(t *testing.T) {
	t.Setenv("FRONTRUN_ENABLED", "true")
	t.Setenv("FRONTRUN_ROUTER", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	t.Setenv("FRONTRUN_TOKEN_IN", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	t.Setenv("FRONTRUN_TOKEN_OUT", "0x6B175474E89094C44Da98b954EedeAC495271d0F")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAIN_MEMPOOL_WS_URL")
}

func TestValidateRejectsBadRetryBounds(t *testing.T) {
	t.Setenv("EXEC_RETRY_MAX_DELAY", "100ms")
	t.Setenv("EXEC_RETRY_BASE_DELAY", "1s")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXEC_RETRY_MAX_DELAY")
}

func TestValidateRejectsBadStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "s3")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_MODE")
}

func TestValidateRequiresExecutorContract(t *testing.T) {
	t.Setenv("HFT_ENABLED", "true")
	t.Setenv("HFT_ASSET", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	t.Setenv("HFT_BASE_ASSET", "0x6B175474E89094C44Da98b954EedeAC495271d0F")
	t.Setenv("HFT_ROUTER", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	t.Setenv("HFT_TARGET_PRICE", "100000000")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXEC_EXECUTOR_CONTRACT")

	t.Setenv("EXEC_EXECUTOR_CONTRACT", "0x9999999999999999999999999999999999999999")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HFT.Enabled)
}

func TestGetAddressListParsesAndSkipsMalformed(t *testing.T) {
	t.Setenv("LIQUIDATION_BORROWERS",
		"0x1111111111111111111111111111111111111111, nonsense ,0x2222222222222222222222222222222222222222")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Liquidation.Borrowers, 2)
}

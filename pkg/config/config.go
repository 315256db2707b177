package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain access
	RPCURL       string
	MempoolWSURL string
	ChainID      int64

	// Evaluator
	SlippageBPS      uint64 // slippage allowance applied to gross gain
	StaleAfterBlocks uint64 // reject opportunities observed further behind head

	// Orchestrator
	MaxRetries          int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	FeePremiumBPS       uint64 // priority premium for competitive strategies
	ConfirmPollInterval time.Duration
	DeadlineBlocks      uint64 // submission deadline relative to detection height
	GasLimit            uint64
	ExecutorContract    common.Address // on-chain plan executor for multi-step plans

	// Circuit breaker
	CircuitBreakerEnabled       bool
	CircuitBreakerCheckInterval time.Duration
	CircuitBreakerMinBalanceWei string

	// Strategies
	Arbitrage   ArbitrageConfig
	Flashloan   FlashloanConfig
	Frontrun    FrontrunConfig
	Liquidation LiquidationConfig
	Sandwich    SandwichConfig
	HFT         HFTConfig

	// Price feeds: comma-separated asset=aggregator address pairs.
	PriceFeedPairs string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// ArbitrageConfig configures the cross-venue arbitrage scanner.
type ArbitrageConfig struct {
	Enabled      bool
	PollInterval time.Duration
	TokenIn      common.Address
	TokenOut     common.Address
	BuyRouter    common.Address
	SellRouter   common.Address
	ProbeAmount  *uint256.Int
}

// FlashloanConfig configures the flash-borrow arbitrage scanner.
type FlashloanConfig struct {
	Enabled      bool
	PollInterval time.Duration
	LendingPool  common.Address
	Asset        common.Address
	MinLiquidity *uint256.Int
	BorrowFeeBPS uint64
	Routers      []common.Address
	Path         []common.Address
}

// FrontrunConfig configures the front-running mempool watcher.
type FrontrunConfig struct {
	Enabled    bool
	MinTxValue *uint256.Int
	Router     common.Address
	TokenIn    common.Address
	TokenOut   common.Address
}

// LiquidationConfig configures the collateral liquidation scanner.
type LiquidationConfig struct {
	Enabled         bool
	PollInterval    time.Duration
	LendingPool     common.Address
	Borrowers       []common.Address
	CollateralAsset common.Address
	DebtAsset       common.Address
	CloseFactorBPS  uint64
	BonusBPS        uint64
	BorrowFeeBPS    uint64
}

// SandwichConfig configures the sandwiching mempool watcher.
type SandwichConfig struct {
	Enabled     bool
	MinTxValue  *uint256.Int
	FrontRouter common.Address
	BackRouter  common.Address
	TokenIn     common.Address
	TokenOut    common.Address
}

// HFTConfig configures the latency-sensitive price trigger scanner.
type HFTConfig struct {
	Enabled      bool
	PollInterval time.Duration
	Asset        common.Address
	Base         common.Address // asset spent to buy Asset
	Router       common.Address
	TargetPrice  *uint256.Int
	TradeAmount  *uint256.Int
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		RPCURL:       getEnvOrDefault("CHAIN_RPC_URL", "https://polygon-rpc.com"),
		MempoolWSURL: os.Getenv("CHAIN_MEMPOOL_WS_URL"),
		ChainID:      int64(getIntOrDefault("CHAIN_ID", 137)),

		SlippageBPS:      getUintOrDefault("EVAL_SLIPPAGE_BPS", 100),
		StaleAfterBlocks: getUintOrDefault("EVAL_STALE_AFTER_BLOCKS", 3),

		MaxRetries:          getIntOrDefault("EXEC_MAX_RETRIES", 3),
		RetryBaseDelay:      getDurationOrDefault("EXEC_RETRY_BASE_DELAY", 1*time.Second),
		RetryMaxDelay:       getDurationOrDefault("EXEC_RETRY_MAX_DELAY", 30*time.Second),
		FeePremiumBPS:       getUintOrDefault("EXEC_FEE_PREMIUM_BPS", 1500),
		ConfirmPollInterval: getDurationOrDefault("EXEC_CONFIRM_POLL_INTERVAL", 2*time.Second),
		DeadlineBlocks:      getUintOrDefault("EXEC_DEADLINE_BLOCKS", 5),
		GasLimit:            getUintOrDefault("EXEC_GAS_LIMIT", 500_000),
		ExecutorContract:    getAddress("EXEC_EXECUTOR_CONTRACT"),

		CircuitBreakerEnabled:       getBoolOrDefault("CIRCUIT_BREAKER_ENABLED", true),
		CircuitBreakerCheckInterval: getDurationOrDefault("CIRCUIT_BREAKER_CHECK_INTERVAL", 1*time.Minute),
		CircuitBreakerMinBalanceWei: getEnvOrDefault("CIRCUIT_BREAKER_MIN_BALANCE_WEI", "100000000000000000"),

		Arbitrage: ArbitrageConfig{
			Enabled:      getBoolOrDefault("ARB_ENABLED", false),
			PollInterval: getDurationOrDefault("ARB_POLL_INTERVAL", 5*time.Second),
			TokenIn:      getAddress("ARB_TOKEN_IN"),
			TokenOut:     getAddress("ARB_TOKEN_OUT"),
			BuyRouter:    getAddress("ARB_BUY_ROUTER"),
			SellRouter:   getAddress("ARB_SELL_ROUTER"),
			ProbeAmount:  getUint256OrDefault("ARB_PROBE_AMOUNT", "1000000000000000000"),
		},
		Flashloan: FlashloanConfig{
			Enabled:      getBoolOrDefault("FLASHLOAN_ENABLED", false),
			PollInterval: getDurationOrDefault("FLASHLOAN_POLL_INTERVAL", 10*time.Second),
			LendingPool:  getAddress("FLASHLOAN_LENDING_POOL"),
			Asset:        getAddress("FLASHLOAN_ASSET"),
			MinLiquidity: getUint256OrDefault("FLASHLOAN_MIN_LIQUIDITY", "1000000000000000000"),
			BorrowFeeBPS: getUintOrDefault("FLASHLOAN_BORROW_FEE_BPS", 9),
			Routers:      getAddressList("FLASHLOAN_ROUTERS"),
			Path:         getAddressList("FLASHLOAN_PATH"),
		},
		Frontrun: FrontrunConfig{
			Enabled:    getBoolOrDefault("FRONTRUN_ENABLED", false),
			MinTxValue: getUint256OrDefault("FRONTRUN_MIN_TX_VALUE", "10000000000000000000"),
			Router:     getAddress("FRONTRUN_ROUTER"),
			TokenIn:    getAddress("FRONTRUN_TOKEN_IN"),
			TokenOut:   getAddress("FRONTRUN_TOKEN_OUT"),
		},
		Liquidation: LiquidationConfig{
			Enabled:         getBoolOrDefault("LIQUIDATION_ENABLED", false),
			PollInterval:    getDurationOrDefault("LIQUIDATION_POLL_INTERVAL", 15*time.Second),
			LendingPool:     getAddress("LIQUIDATION_LENDING_POOL"),
			Borrowers:       getAddressList("LIQUIDATION_BORROWERS"),
			CollateralAsset: getAddress("LIQUIDATION_COLLATERAL_ASSET"),
			DebtAsset:       getAddress("LIQUIDATION_DEBT_ASSET"),
			CloseFactorBPS:  getUintOrDefault("LIQUIDATION_CLOSE_FACTOR_BPS", 5000),
			BonusBPS:        getUintOrDefault("LIQUIDATION_BONUS_BPS", 500),
			BorrowFeeBPS:    getUintOrDefault("LIQUIDATION_BORROW_FEE_BPS", 9),
		},
		Sandwich: SandwichConfig{
			Enabled:     getBoolOrDefault("SANDWICH_ENABLED", false),
			MinTxValue:  getUint256OrDefault("SANDWICH_MIN_TX_VALUE", "50000000000000000000"),
			FrontRouter: getAddress("SANDWICH_FRONT_ROUTER"),
			BackRouter:  getAddress("SANDWICH_BACK_ROUTER"),
			TokenIn:     getAddress("SANDWICH_TOKEN_IN"),
			TokenOut:    getAddress("SANDWICH_TOKEN_OUT"),
		},
		HFT: HFTConfig{
			Enabled:      getBoolOrDefault("HFT_ENABLED", false),
			PollInterval: getDurationOrDefault("HFT_POLL_INTERVAL", 500*time.Millisecond),
			Asset:        getAddress("HFT_ASSET"),
			Base:         getAddress("HFT_BASE_ASSET"),
			Router:       getAddress("HFT_ROUTER"),
			TargetPrice:  getUint256OrDefault("HFT_TARGET_PRICE", "0"),
			TradeAmount:  getUint256OrDefault("HFT_TRADE_AMOUNT", "1000000000000000000"),
		},

		PriceFeedPairs: os.Getenv("PRICE_FEED_PAIRS"),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "chainhawk"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "chainhawk123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "chainhawk"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid. Malformed or missing
// required fields are surfaced here, before any scanner starts.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL cannot be empty")
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("EXEC_MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}

	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("EXEC_RETRY_BASE_DELAY must be positive")
	}

	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("EXEC_RETRY_MAX_DELAY must be >= EXEC_RETRY_BASE_DELAY")
	}

	if c.SlippageBPS >= 10_000 {
		return fmt.Errorf("EVAL_SLIPPAGE_BPS must be below 10000, got %d", c.SlippageBPS)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.Arbitrage.Enabled {
		err := requireAddresses(map[string]common.Address{
			"ARB_TOKEN_IN":    c.Arbitrage.TokenIn,
			"ARB_TOKEN_OUT":   c.Arbitrage.TokenOut,
			"ARB_BUY_ROUTER":  c.Arbitrage.BuyRouter,
			"ARB_SELL_ROUTER": c.Arbitrage.SellRouter,
		})
		if err != nil {
			return err
		}
	}

	if c.Flashloan.Enabled {
		err := requireAddresses(map[string]common.Address{
			"FLASHLOAN_LENDING_POOL": c.Flashloan.LendingPool,
			"FLASHLOAN_ASSET":        c.Flashloan.Asset,
		})
		if err != nil {
			return err
		}
		if len(c.Flashloan.Path) < 2 {
			return fmt.Errorf("FLASHLOAN_PATH needs at least two hops")
		}
		if len(c.Flashloan.Routers) != len(c.Flashloan.Path)-1 {
			return fmt.Errorf("FLASHLOAN_ROUTERS must have one router per path hop")
		}
	}

	if c.Frontrun.Enabled || c.Sandwich.Enabled {
		if c.MempoolWSURL == "" {
			return fmt.Errorf("CHAIN_MEMPOOL_WS_URL required for mempool strategies")
		}
	}

	if c.Frontrun.Enabled {
		err := requireAddresses(map[string]common.Address{
			"FRONTRUN_ROUTER":    c.Frontrun.Router,
			"FRONTRUN_TOKEN_IN":  c.Frontrun.TokenIn,
			"FRONTRUN_TOKEN_OUT": c.Frontrun.TokenOut,
		})
		if err != nil {
			return err
		}
	}

	if c.Liquidation.Enabled {
		err := requireAddresses(map[string]common.Address{
			"LIQUIDATION_LENDING_POOL":     c.Liquidation.LendingPool,
			"LIQUIDATION_COLLATERAL_ASSET": c.Liquidation.CollateralAsset,
			"LIQUIDATION_DEBT_ASSET":       c.Liquidation.DebtAsset,
		})
		if err != nil {
			return err
		}
		if len(c.Liquidation.Borrowers) == 0 {
			return fmt.Errorf("LIQUIDATION_BORROWERS cannot be empty")
		}
	}

	if c.Sandwich.Enabled {
		err := requireAddresses(map[string]common.Address{
			"SANDWICH_FRONT_ROUTER": c.Sandwich.FrontRouter,
			"SANDWICH_BACK_ROUTER":  c.Sandwich.BackRouter,
			"SANDWICH_TOKEN_IN":     c.Sandwich.TokenIn,
			"SANDWICH_TOKEN_OUT":    c.Sandwich.TokenOut,
		})
		if err != nil {
			return err
		}
	}

	if c.HFT.Enabled {
		err := requireAddresses(map[string]common.Address{
			"HFT_ASSET":      c.HFT.Asset,
			"HFT_BASE_ASSET": c.HFT.Base,
			"HFT_ROUTER":     c.HFT.Router,
		})
		if err != nil {
			return err
		}
		if c.HFT.TargetPrice.IsZero() {
			return fmt.Errorf("HFT_TARGET_PRICE must be set when HFT is enabled")
		}
	}

	anyStrategy := c.Arbitrage.Enabled || c.Flashloan.Enabled || c.Frontrun.Enabled ||
		c.Liquidation.Enabled || c.Sandwich.Enabled || c.HFT.Enabled
	if anyStrategy && c.ExecutorContract == (common.Address{}) {
		return fmt.Errorf("EXEC_EXECUTOR_CONTRACT must be a valid address when a strategy is enabled")
	}

	return nil
}

func requireAddresses(fields map[string]common.Address) error {
	for name, addr := range fields {
		if addr == (common.Address{}) {
			return fmt.Errorf("%s must be a valid address", name)
		}
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getUintOrDefault(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	uintVal, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return uintVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getAddress(key string) common.Address {
	value := os.Getenv(key)
	if !common.IsHexAddress(value) {
		return common.Address{}
	}
	return common.HexToAddress(value)
}

func getAddressList(key string) []common.Address {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	addrs := make([]common.Address, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if common.IsHexAddress(part) {
			addrs = append(addrs, common.HexToAddress(part))
		}
	}

	return addrs
}

func getUint256OrDefault(key string, defaultValue string) *uint256.Int {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		parsed, _ = uint256.FromDecimal(defaultValue)
	}

	return parsed
}

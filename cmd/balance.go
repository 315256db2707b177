package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check the funding account's gas balance",
	Long: `Displays the funding account address and its native-token balance,
and whether that balance clears the circuit breaker's minimum.`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(*cobra.Command, []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Quiet logger: this command prints its own report.
	logger := zap.NewNop()

	account, err := wallet.LoadFromEnv(logger)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return fmt.Errorf("dial chain: %w", err)
	}
	defer client.Close()

	balances, err := wallet.GetBalances(ctx, client, account.Address(), strategyTokens(cfg))
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	ether := new(big.Float).Quo(new(big.Float).SetInt(balances.Native), big.NewFloat(1e18))

	fmt.Printf("Address:  %s\n", account.Address().Hex())
	fmt.Printf("Chain ID: %d\n", cfg.ChainID)
	fmt.Printf("Balance:  %s wei (%s)\n", balances.Native.String(), ether.Text('f', 6))
	for token, amount := range balances.Tokens {
		fmt.Printf("Token %s: %s\n", token.Hex(), amount.String())
	}

	minBalance, ok := new(big.Int).SetString(cfg.CircuitBreakerMinBalanceWei, 10)
	if ok && cfg.CircuitBreakerEnabled {
		fmt.Printf("Breaker minimum: %s wei\n", minBalance.String())
		if balances.Native.Cmp(minBalance) >= 0 {
			fmt.Printf("Submissions: allowed\n")
		} else {
			fmt.Printf("Submissions: blocked (balance below minimum)\n")
		}
	}

	return nil
}

// strategyTokens collects the distinct token addresses the enabled strategies
// trade, so the report covers the assets the agent actually touches.
func strategyTokens(cfg *config.Config) []common.Address {
	seen := make(map[common.Address]struct{})
	var tokens []common.Address

	add := func(addr common.Address) {
		if addr == (common.Address{}) {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		tokens = append(tokens, addr)
	}

	if cfg.Arbitrage.Enabled {
		add(cfg.Arbitrage.TokenIn)
		add(cfg.Arbitrage.TokenOut)
	}
	if cfg.Flashloan.Enabled {
		add(cfg.Flashloan.Asset)
	}
	if cfg.Liquidation.Enabled {
		add(cfg.Liquidation.CollateralAsset)
		add(cfg.Liquidation.DebtAsset)
	}
	if cfg.HFT.Enabled {
		add(cfg.HFT.Asset)
		add(cfg.HFT.Base)
	}

	return tokens
}

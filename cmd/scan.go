package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/chainhawk/internal/evaluator"
	"github.com/mselser95/chainhawk/internal/strategy"
	"github.com/mselser95/chainhawk/pkg/chain"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/mselser95/chainhawk/pkg/pricefeed"
	"github.com/mselser95/chainhawk/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle without executing",
	Long: `Runs every enabled polling strategy once against current chain state
and prints the candidates with the evaluator's verdict. Nothing is submitted;
mempool strategies are skipped because a single cycle has no feed to watch.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(*cobra.Command, []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return fmt.Errorf("dial chain: %w", err)
	}
	defer client.Close()

	deps := strategy.Deps{
		Client:         client,
		GasLimit:       cfg.GasLimit,
		DeadlineBlocks: cfg.DeadlineBlocks,
	}
	// The account only matters at execution; scanning works without one.
	if account, err := wallet.LoadFromEnv(logger); err == nil {
		deps.Account = account.Address()
	}

	feeds, err := pricefeed.ParseFeedPairs(cfg.PriceFeedPairs)
	if err != nil {
		return fmt.Errorf("parse price feeds: %w", err)
	}
	prices := pricefeed.NewChainlinkSource(client, feeds, logger)

	var pollers []strategy.PollStrategy
	if cfg.Arbitrage.Enabled {
		pollers = append(pollers, strategy.NewArbitrage(cfg.Arbitrage, deps, logger))
	}
	if cfg.Flashloan.Enabled {
		pollers = append(pollers, strategy.NewFlashloan(cfg.Flashloan, deps, logger))
	}
	if cfg.Liquidation.Enabled {
		pollers = append(pollers, strategy.NewLiquidation(cfg.Liquidation, deps, prices, logger))
	}
	if cfg.HFT.Enabled {
		pollers = append(pollers, strategy.NewHFT(cfg.HFT, deps, prices, logger))
	}

	if len(pollers) == 0 {
		fmt.Println("No polling strategies enabled.")
		return nil
	}

	height, err := client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get height: %w", err)
	}
	fmt.Printf("Scanning at height %d\n\n", height)

	eval := evaluator.New(evaluator.Config{
		SlippageBPS:      cfg.SlippageBPS,
		StaleAfterBlocks: cfg.StaleAfterBlocks,
	}, logger)

	total := 0
	for _, p := range pollers {
		opps, err := p.Poll(ctx, height)
		if err != nil {
			fmt.Printf("[%s] poll failed: %v\n", p.Kind(), err)
			continue
		}

		for _, opp := range opps {
			total++
			decision := eval.Evaluate(opp, height)
			verdict := "accept"
			if !decision.Accepted {
				verdict = "reject (" + string(decision.Reason) + ")"
			}
			fmt.Printf("[%s] gain=%s cost=%s net=%s -> %s\n",
				opp.Kind,
				opp.ExpectedGrossGain.Dec(),
				opp.EstimatedCost.Dec(),
				decision.ExpectedNet.Dec(),
				verdict)
		}
	}

	fmt.Printf("\n%d candidate(s) found.\n", total)
	return nil
}

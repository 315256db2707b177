package cmd

import (
	"fmt"

	"github.com/mselser95/chainhawk/internal/app"
	"github.com/mselser95/chainhawk/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading agent",
	Long: `Starts the agent, which will:
1. Poll chain state and watch the mempool with the enabled strategies
2. Evaluate each candidate against gas, borrow fees and slippage
3. Execute accepted plans atomically with bounded retry
4. Report every terminal outcome and the running profit ledger`,
	RunE: runAgent,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runAgent(*cobra.Command, []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}

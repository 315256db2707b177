package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "chainhawk",
	Short: "On-chain trading agent",
	Long: `Chainhawk watches chain state and the public mempool for short-lived
profit opportunities (cross-venue arbitrage, liquidations, price triggers and
transaction-ordering plays), evaluates each candidate against gas, fees and
slippage, and executes the profitable ones as atomic on-chain plans.

Configuration is environment-driven; a .env file in the working directory is
loaded automatically.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

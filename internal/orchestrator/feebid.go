package orchestrator

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/types"
)

// nextFeeBid chooses the gas price for the next attempt: the current network
// estimate, plus the configured premium for competitive kinds, and never
// below a 12.5% bump over the previous bid. Bids only ever go up; lowering a
// bid mid-race would both lose the race and strand the nonce.
func (e *Engine) nextFeeBid(ctx context.Context, kind types.StrategyKind, prev *uint256.Int) (*uint256.Int, error) {
	network, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fee estimate: %w", err)
	}

	bid, overflow := uint256.FromBig(network)
	if overflow {
		return nil, fmt.Errorf("network fee overflows uint256")
	}

	if kind.Competitive() {
		premium := types.Fraction(bid, e.cfg.FeePremiumBPS, 10_000)
		bid.Add(bid, premium)
	}

	if prev != nil {
		// Geth refuses replacements under a 10% bump; 12.5% clears it with
		// rounding headroom.
		floor := new(uint256.Int).Add(prev, types.Fraction(prev, 1_250, 10_000))
		if bid.Lt(floor) {
			bid = floor
		}
	}

	return bid, nil
}

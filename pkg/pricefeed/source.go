// Package pricefeed reads asset prices from on-chain oracle aggregators.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrUnsupportedAsset means no oracle aggregator is configured for the asset.
var ErrUnsupportedAsset = errors.New("no price feed for asset")

// Source provides the latest oracle price for an asset. Prices are returned
// in the aggregator's native scale (Chainlink USD feeds use 8 decimals).
type Source interface {
	Price(ctx context.Context, asset common.Address) (*uint256.Int, error)
}

// DefaultFeeds returns the built-in mainnet asset to aggregator mapping.
func DefaultFeeds() map[common.Address]common.Address {
	return map[common.Address]common.Address{
		// WETH -> ETH/USD
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"): common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
		// DAI -> DAI/USD
		common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): common.HexToAddress("0xAed0c38402a5d19df6E4c03F4E2DceD6e29c1ee9"),
		// USDC -> USDC/USD
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): common.HexToAddress("0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6"),
	}
}

// ParseFeedPairs parses a comma-separated list of asset=aggregator address
// pairs, merging them over the built-in defaults. An entry for an asset that
// already has a default replaces it.
func ParseFeedPairs(raw string) (map[common.Address]common.Address, error) {
	feeds := DefaultFeeds()
	if raw == "" {
		return feeds, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed feed pair %q, want asset=aggregator", pair)
		}

		asset, aggregator := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if !common.IsHexAddress(asset) {
			return nil, fmt.Errorf("feed pair %q: invalid asset address", pair)
		}
		if !common.IsHexAddress(aggregator) {
			return nil, fmt.Errorf("feed pair %q: invalid aggregator address", pair)
		}

		feeds[common.HexToAddress(asset)] = common.HexToAddress(aggregator)
	}

	return feeds, nil
}

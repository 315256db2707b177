package pricefeed

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/chain"
	"go.uber.org/zap"
)

// ChainlinkSource reads prices from Chainlink-style aggregator contracts
// via latestAnswer.
type ChainlinkSource struct {
	client chain.Client
	feeds  map[common.Address]common.Address
	logger *zap.Logger
}

// NewChainlinkSource creates a source over the given asset to aggregator map.
func NewChainlinkSource(
	client chain.Client,
	feeds map[common.Address]common.Address,
	logger *zap.Logger,
) *ChainlinkSource {
	return &ChainlinkSource{
		client: client,
		feeds:  feeds,
		logger: logger,
	}
}

// Price returns the latest answer for the asset's aggregator. Assets with no
// configured aggregator fail with ErrUnsupportedAsset; a negative or zero
// answer is treated as a feed malfunction.
func (s *ChainlinkSource) Price(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	aggregator, ok := s.feeds[asset]
	if !ok {
		LookupsTotal.WithLabelValues("unsupported").Inc()
		return nil, fmt.Errorf("asset %s: %w", asset.Hex(), ErrUnsupportedAsset)
	}

	data, err := chain.AggregatorABI.Pack("latestAnswer")
	if err != nil {
		return nil, fmt.Errorf("pack latestAnswer: %w", err)
	}

	result, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &aggregator, Data: data})
	if err != nil {
		LookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query aggregator %s: %w", aggregator.Hex(), err)
	}

	unpacked, err := chain.AggregatorABI.Unpack("latestAnswer", result)
	if err != nil {
		LookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("unpack latestAnswer: %w", err)
	}

	answer, ok := unpacked[0].(*big.Int)
	if !ok {
		LookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("unexpected answer type from aggregator %s", aggregator.Hex())
	}

	if answer.Sign() <= 0 {
		LookupsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("aggregator %s returned non-positive answer %s", aggregator.Hex(), answer)
	}

	price, overflow := uint256.FromBig(answer)
	if overflow {
		LookupsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("aggregator %s answer overflows uint256", aggregator.Hex())
	}

	LookupsTotal.WithLabelValues("ok").Inc()
	s.logger.Debug("price-fetched",
		zap.String("asset", asset.Hex()),
		zap.String("price", price.Dec()))

	return price, nil
}

package types

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// StrategyKind identifies the strategy that produced an opportunity.
type StrategyKind string

const (
	KindArbitrage          StrategyKind = "arbitrage"
	KindFlashloanArbitrage StrategyKind = "flashloan-arbitrage"
	KindFrontrun           StrategyKind = "frontrun"
	KindLiquidation        StrategyKind = "liquidation"
	KindSandwich           StrategyKind = "sandwich"
	KindHFT                StrategyKind = "hft"
)

// Competitive reports whether the strategy races third-party transactions
// and therefore bids a priority-fee premium.
func (k StrategyKind) Competitive() bool {
	return k == KindFrontrun || k == KindSandwich
}

// Opportunity is a candidate actionable event emitted by a scanner.
// It is immutable once emitted; re-evaluation produces a new Opportunity.
type Opportunity struct {
	ID              string
	Kind            StrategyKind
	Subject         any
	ObservedAtBlock uint64
	DetectedAt      time.Time

	// ExpectedGrossGain and EstimatedCost are in the asset's smallest unit.
	ExpectedGrossGain *uint256.Int
	EstimatedCost     *uint256.Int
}

// NewOpportunity creates an opportunity with a fresh ID and detection timestamp.
func NewOpportunity(kind StrategyKind, subject any, block uint64, gain, cost *uint256.Int) *Opportunity {
	return &Opportunity{
		ID:                uuid.New().String(),
		Kind:              kind,
		Subject:           subject,
		ObservedAtBlock:   block,
		DetectedAt:        time.Now(),
		ExpectedGrossGain: gain,
		EstimatedCost:     cost,
	}
}

// String returns a short human-readable representation.
func (o *Opportunity) String() string {
	return fmt.Sprintf("Opportunity[%s] kind=%s block=%d gain=%s cost=%s",
		o.ID[:8], o.Kind, o.ObservedAtBlock,
		o.ExpectedGrossGain.Dec(), o.EstimatedCost.Dec())
}

// TokenPairSubject describes a cross-venue price divergence candidate.
type TokenPairSubject struct {
	TokenIn     common.Address
	TokenOut    common.Address
	BuyRouter   common.Address
	SellRouter  common.Address
	ProbeAmount *uint256.Int
}

// BorrowerSubject describes an undercollateralized loan candidate.
type BorrowerSubject struct {
	Borrower        common.Address
	CollateralAsset common.Address
	DebtAsset       common.Address
	DebtToCover     *uint256.Int
}

// PendingTxSubject references a pending transaction observed in the mempool.
// The referenced transaction may be replaced, mined, or evicted at any time;
// liveness must be re-checked immediately before submission.
type PendingTxSubject struct {
	Hash     common.Hash
	From     common.Address
	To       *common.Address
	Value    *uint256.Int
	GasPrice *uint256.Int
}

// PriceTargetSubject describes a latency-sensitive trade trigger.
type PriceTargetSubject struct {
	Asset       common.Address
	Router      common.Address
	TargetPrice *uint256.Int
	TradeAmount *uint256.Int
}

// Package evaluator decides whether a detected opportunity is worth executing.
package evaluator

import (
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// RejectReason explains why an opportunity was discarded.
type RejectReason string

const (
	ReasonUnprofitable       RejectReason = "unprofitable"
	ReasonStale              RejectReason = "stale"
	ReasonUnsupportedSubject RejectReason = "unsupported-subject"
)

// Decision is the evaluator's verdict on a single opportunity.
type Decision struct {
	Accepted    bool
	Reason      RejectReason // set only when rejected
	ExpectedNet *uint256.Int // gross gain minus total cost, zero floor
	TotalCost   *uint256.Int // estimated cost plus slippage allowance
}

// Config tunes the evaluator's thresholds.
type Config struct {
	// SlippageBPS is the share of the gross gain reserved as a price
	// movement allowance, in basis points.
	SlippageBPS uint64

	// StaleAfterBlocks rejects opportunities observed more than this many
	// blocks behind the current head.
	StaleAfterBlocks uint64
}

// Evaluator applies a pure profitability check. It performs no I/O and never
// fails; every opportunity maps to exactly one Decision.
type Evaluator struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an evaluator.
func New(cfg Config, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		logger: logger,
	}
}

// Evaluate decides whether the opportunity clears its full cost at the given
// chain head. The total cost is the strategy's estimate (gas and any borrow
// fee) plus a slippage allowance taken from the gross gain. All arithmetic
// saturates at zero; a cost exceeding the gain yields a zero net, never a
// wrapped value.
func (e *Evaluator) Evaluate(opp *types.Opportunity, head uint64) Decision {
	if !supportedSubject(opp) {
		e.reject(opp, ReasonUnsupportedSubject)
		return Decision{
			Reason:      ReasonUnsupportedSubject,
			ExpectedNet: uint256.NewInt(0),
			TotalCost:   uint256.NewInt(0),
		}
	}

	if head > opp.ObservedAtBlock && head-opp.ObservedAtBlock > e.cfg.StaleAfterBlocks {
		e.reject(opp, ReasonStale)
		return Decision{
			Reason:      ReasonStale,
			ExpectedNet: uint256.NewInt(0),
			TotalCost:   uint256.NewInt(0),
		}
	}

	slippage := types.Fraction(opp.ExpectedGrossGain, e.cfg.SlippageBPS, 10_000)
	totalCost := new(uint256.Int).Add(opp.EstimatedCost, slippage)
	net := types.SaturatingSub(opp.ExpectedGrossGain, totalCost)

	if net.IsZero() {
		e.reject(opp, ReasonUnprofitable)
		return Decision{
			Reason:      ReasonUnprofitable,
			ExpectedNet: net,
			TotalCost:   totalCost,
		}
	}

	DecisionsTotal.WithLabelValues("accept").Inc()
	e.logger.Info("opportunity-accepted",
		zap.String("opportunity-id", opp.ID),
		zap.String("kind", string(opp.Kind)),
		zap.String("expected-net", net.Dec()),
		zap.String("total-cost", totalCost.Dec()))

	return Decision{
		Accepted:    true,
		ExpectedNet: net,
		TotalCost:   totalCost,
	}
}

func (e *Evaluator) reject(opp *types.Opportunity, reason RejectReason) {
	DecisionsTotal.WithLabelValues(string(reason)).Inc()
	e.logger.Debug("opportunity-rejected",
		zap.String("opportunity-id", opp.ID),
		zap.String("kind", string(opp.Kind)),
		zap.String("reason", string(reason)))
}

// supportedSubject checks the opportunity carries a subject type the
// downstream plan builders know how to handle.
func supportedSubject(opp *types.Opportunity) bool {
	if opp.ExpectedGrossGain == nil || opp.EstimatedCost == nil {
		return false
	}

	switch opp.Subject.(type) {
	case types.TokenPairSubject, *types.TokenPairSubject:
		return true
	case types.BorrowerSubject, *types.BorrowerSubject:
		return true
	case types.PendingTxSubject, *types.PendingTxSubject:
		return true
	case types.PriceTargetSubject, *types.PriceTargetSubject:
		return true
	default:
		return false
	}
}

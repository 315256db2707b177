package types

import (
	"math/big"
	"time"
)

// OutcomeEvent is the structured record emitted for every terminal plan
// outcome, consumed by the dashboard/monitoring collaborators.
type OutcomeEvent struct {
	PlanID       string
	Kind         StrategyKind
	Outcome      PlanOutcome
	// Realized is the profit (positive) or loss (negative) attributed to the
	// plan, in the asset's smallest unit. Signed integers are fine here: this
	// is reporting, not settlement.
	Realized     *big.Int
	AttemptCount int
	DetectedAt   time.Time
	CompletedAt  time.Time
	Reason       string
}

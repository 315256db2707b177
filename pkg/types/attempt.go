package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AttemptOutcome is the terminal (or pending) state of one submission.
type AttemptOutcome string

const (
	AttemptPending   AttemptOutcome = "pending"
	AttemptConfirmed AttemptOutcome = "confirmed-success"
	AttemptReverted  AttemptOutcome = "confirmed-reverted"
	AttemptDropped   AttemptOutcome = "dropped"
	AttemptError     AttemptOutcome = "error"
)

// Terminal reports whether the outcome will no longer change.
func (o AttemptOutcome) Terminal() bool {
	return o != AttemptPending
}

// Attempt records one submission of an execution plan.
type Attempt struct {
	Number      int
	SubmittedAt time.Time
	FeeBid      *uint256.Int
	TxHash      common.Hash
	Outcome     AttemptOutcome
	GasUsed     uint64
	Err         error
}

// PlanOutcome is the terminal state of a whole execution plan.
type PlanOutcome string

const (
	PlanConfirmed       PlanOutcome = "confirmed"
	PlanReverted        PlanOutcome = "reverted"
	PlanExpired         PlanOutcome = "expired"
	PlanAbandoned       PlanOutcome = "abandoned"
	PlanRetriesExceeded PlanOutcome = "retries-exceeded"
)

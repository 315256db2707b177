// Package storage persists terminal plan outcomes for later analysis.
package storage

import (
	"context"

	"github.com/mselser95/chainhawk/pkg/types"
)

// Storage is a sink for terminal plan outcomes.
type Storage interface {
	// SaveOutcome records one terminal plan outcome.
	SaveOutcome(ctx context.Context, event *types.OutcomeEvent) error

	// Close releases the underlying connection.
	Close() error
}

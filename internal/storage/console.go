package storage

import (
	"context"

	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by logging outcomes. Useful for dry runs
// and local development where no database is available.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// SaveOutcome logs the outcome record.
func (c *ConsoleStorage) SaveOutcome(_ context.Context, event *types.OutcomeEvent) error {
	realized := "0"
	if event.Realized != nil {
		realized = event.Realized.String()
	}

	c.logger.Info("plan-outcome",
		zap.String("plan-id", event.PlanID),
		zap.String("kind", string(event.Kind)),
		zap.String("outcome", string(event.Outcome)),
		zap.String("realized", realized),
		zap.Int("attempts", event.AttemptCount),
		zap.Time("detected-at", event.DetectedAt),
		zap.Time("completed-at", event.CompletedAt),
		zap.String("reason", event.Reason))

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

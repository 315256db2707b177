package storage

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mselser95/chainhawk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testEvent() *types.OutcomeEvent {
	return &types.OutcomeEvent{
		PlanID:       "3e9f6c2a-8d41-4e7b-9f2c-1a5b8d3e7f90",
		Kind:         types.KindArbitrage,
		Outcome:      types.PlanConfirmed,
		Realized:     big.NewInt(4200),
		AttemptCount: 1,
		DetectedAt:   time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
		CompletedAt:  time.Date(2025, 11, 2, 10, 0, 12, 0, time.UTC),
	}
}

func TestPostgresSaveOutcome(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}
	event := testEvent()

	mock.ExpectExec("INSERT INTO plan_outcomes").
		WithArgs(
			event.PlanID,
			string(event.Kind),
			string(event.Outcome),
			"4200",
			event.AttemptCount,
			event.DetectedAt,
			event.CompletedAt,
			event.Reason,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveOutcome(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveOutcomeNegativeRealized(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}
	event := testEvent()
	event.Outcome = types.PlanReverted
	event.Realized = big.NewInt(-150_000)
	event.Reason = "reverted on-chain"

	mock.ExpectExec("INSERT INTO plan_outcomes").
		WithArgs(
			event.PlanID,
			string(event.Kind),
			string(event.Outcome),
			"-150000",
			event.AttemptCount,
			event.DetectedAt,
			event.CompletedAt,
			event.Reason,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveOutcome(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveOutcomeError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}

	mock.ExpectExec("INSERT INTO plan_outcomes").
		WillReturnError(sqlmock.ErrCancelled)

	err = store.SaveOutcome(context.Background(), testEvent())
	assert.ErrorContains(t, err, "insert outcome")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClose(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}

	mock.ExpectClose()
	require.NoError(t, store.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsoleStorage(t *testing.T) {
	t.Parallel()

	store := NewConsoleStorage(zaptest.NewLogger(t))

	require.NoError(t, store.SaveOutcome(context.Background(), testEvent()))
	require.NoError(t, store.Close())
}

func TestStorageInterface(t *testing.T) {
	t.Parallel()

	var _ Storage = NewConsoleStorage(zaptest.NewLogger(t))
	var _ Storage = (*PostgresStorage)(nil)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage opens and verifies a PostgreSQL connection.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// SaveOutcome inserts one terminal plan outcome.
func (p *PostgresStorage) SaveOutcome(ctx context.Context, event *types.OutcomeEvent) error {
	query := `
		INSERT INTO plan_outcomes (
			plan_id, kind, outcome, realized_wei,
			attempt_count, detected_at, completed_at, reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	// NUMERIC column; lib/pq takes the decimal string.
	realized := "0"
	if event.Realized != nil {
		realized = event.Realized.String()
	}

	_, err := p.db.ExecContext(ctx, query,
		event.PlanID,
		string(event.Kind),
		string(event.Outcome),
		realized,
		event.AttemptCount,
		event.DetectedAt,
		event.CompletedAt,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}

	p.logger.Debug("outcome-stored",
		zap.String("plan-id", event.PlanID),
		zap.String("outcome", string(event.Outcome)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.LeaseRepository
}

var _ repository.Migrator = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:              db,
		LeaseRepository: NewLeaseRepository(db),
	}
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS leases (
    id                BIGSERIAL PRIMARY KEY,
    customer_name     TEXT NOT NULL,
    customer_email    TEXT NOT NULL,
    customer_phone    TEXT,
    national_id       TEXT,
    car_model         TEXT NOT NULL,
    car_segment       TEXT,
    car_registration  TEXT,
    start_date        DATE NOT NULL,
    end_date          DATE NOT NULL,
    monthly_price     NUMERIC(12, 2) NOT NULL CHECK (monthly_price >= 0),
    status            TEXT NOT NULL,
    credit_status     TEXT NOT NULL,
    credit_score      INTEGER,
    credit_checked_at TIMESTAMPTZ,
    vehicle_id        BIGINT,
    created_by        BIGINT,
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL,
    CHECK (start_date < end_date)
);
CREATE INDEX IF NOT EXISTS idx_leases_status ON leases(status);
CREATE INDEX IF NOT EXISTS idx_leases_updated_at ON leases(updated_at);
`

// Migrate creates the lease schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("migrate", "CREATE TABLE leases")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	if err != nil {
		return fmt.Errorf("migrate leases: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

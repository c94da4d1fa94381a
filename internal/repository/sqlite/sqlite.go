// Package sqlite is a single-node lease store on modernc.org/sqlite. It
// implements the same contract as the postgres store and is meant for local
// runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS leases (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_name     TEXT NOT NULL,
    customer_email    TEXT NOT NULL,
    customer_phone    TEXT,
    national_id       TEXT,
    car_model         TEXT NOT NULL,
    car_segment       TEXT,
    car_registration  TEXT,
    start_date        DATE NOT NULL,
    end_date          DATE NOT NULL,
    monthly_price     TEXT NOT NULL,
    status            TEXT NOT NULL,
    credit_status     TEXT NOT NULL,
    credit_score      INTEGER,
    credit_checked_at DATETIME,
    vehicle_id        INTEGER,
    created_by        INTEGER,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leases_status ON leases(status);
CREATE INDEX IF NOT EXISTS idx_leases_updated_at ON leases(updated_at);
`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ repository.LeaseRepository = (*Store)(nil)
	_ repository.Migrator        = (*Store)(nil)
)

// Open opens the database at dsn and creates the schema. Use ":memory:" for
// a throwaway store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

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

func (s *Store) Create(ctx context.Context, l *domain.Lease) error {
	now := s.now().UTC()
	logger.DatabaseCall("lease.create", "INSERT INTO leases", "car_model", l.CarModel)
	res, err := s.db.ExecContext(ctx, `INSERT INTO leases (customer_name, customer_email, customer_phone, national_id, car_model, car_segment, car_registration,
		start_date, end_date, monthly_price, status, credit_status, credit_score, credit_checked_at, vehicle_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.CustomerName, l.CustomerEmail, repository.NullString(l.CustomerPhone), repository.NullString(l.NationalID),
		l.CarModel, repository.NullString(l.CarSegment), repository.NullString(l.CarRegistration),
		l.StartDate.UTC(), l.EndDate.UTC(), l.MonthlyPrice.String(), string(l.Status), string(l.CreditStatus),
		repository.NullInt(l.CreditScore), repository.NullTime(l.CreditCheckedAt),
		repository.NullInt64(l.VehicleID), repository.NullInt64(l.CreatedBy), now, now,
	)
	if err != nil {
		logger.DatabaseResult("lease.create", 0, err)
		return fmt.Errorf("insert lease: %w", err)
	}
	id, err := res.LastInsertId()
	logger.DatabaseResult("lease.create", 1, err, "lease_id", id)
	if err != nil {
		return fmt.Errorf("insert lease: %w", err)
	}
	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Lease, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+repository.LeaseColumns+` FROM leases WHERE id = ?`, id)
	l, err := repository.ScanLease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("lease.get", "lease %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lease %d: %w", id, err)
	}
	return l, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus) error {
	return s.exec(ctx, "lease.update_status", id,
		`UPDATE leases SET status = ?, updated_at = ? WHERE id = ?`, string(status), s.now().UTC(), id)
}

func (s *Store) BindVehicle(ctx context.Context, id int64, vehicleID int64) error {
	return s.exec(ctx, "lease.bind_vehicle", id,
		`UPDATE leases SET vehicle_id = ?, updated_at = ? WHERE id = ?`, vehicleID, s.now().UTC(), id)
}

func (s *Store) exec(ctx context.Context, op string, id int64, query string, args ...any) error {
	logger.DatabaseCall(op, query, "lease_id", id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(op, 0, err, "lease_id", id)
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult(op, n, err, "lease_id", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domain.NewNotFoundError(op, "lease %d not found", id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f repository.LeaseFilter) ([]domain.Lease, error) {
	query := `SELECT ` + repository.LeaseColumns + ` FROM leases`
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.UnboundOnly {
		where = append(where, "vehicle_id IS NULL")
	}
	if f.TerminalWithVehicle {
		terminal := repository.TerminalStatuses()
		marks := make([]string, len(terminal))
		for i, st := range terminal {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "vehicle_id IS NOT NULL", "status IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.UpdatedSince.IsZero() {
		where = append(where, "updated_at >= ?")
		args = append(args, f.UpdatedSince.UTC())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer rows.Close()

	var leases []domain.Lease
	for rows.Next() {
		l, err := repository.ScanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		leases = append(leases, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	return leases, nil
}

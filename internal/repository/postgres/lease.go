package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/repository"
)

type leaseRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewLeaseRepository(db *sql.DB) repository.LeaseRepository {
	return &leaseRepository{db: db, now: time.Now}
}

func (r *leaseRepository) Create(ctx context.Context, l *domain.Lease) error {
	now := r.now().UTC()
	query := `INSERT INTO leases (customer_name, customer_email, customer_phone, national_id, car_model, car_segment, car_registration,
	          start_date, end_date, monthly_price, status, credit_status, credit_score, credit_checked_at, vehicle_id, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`
	logger.DatabaseCall("lease.create", "INSERT INTO leases", "car_model", l.CarModel)
	err := r.db.QueryRowContext(ctx, query,
		l.CustomerName, l.CustomerEmail, repository.NullString(l.CustomerPhone), repository.NullString(l.NationalID),
		l.CarModel, repository.NullString(l.CarSegment), repository.NullString(l.CarRegistration),
		l.StartDate, l.EndDate, l.MonthlyPrice, l.Status, l.CreditStatus,
		repository.NullInt(l.CreditScore), repository.NullTime(l.CreditCheckedAt),
		repository.NullInt64(l.VehicleID), repository.NullInt64(l.CreatedBy), now, now,
	).Scan(&l.ID)
	logger.DatabaseResult("lease.create", 1, err, "lease_id", l.ID)
	if err != nil {
		return fmt.Errorf("insert lease: %w", err)
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

func (r *leaseRepository) GetByID(ctx context.Context, id int64) (*domain.Lease, error) {
	query := `SELECT ` + repository.LeaseColumns + ` FROM leases WHERE id = $1`
	l, err := repository.ScanLease(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("lease.get", "lease %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lease %d: %w", id, err)
	}
	return l, nil
}

func (r *leaseRepository) UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus) error {
	query := `UPDATE leases SET status = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, "lease.update_status", id, query, status, r.now().UTC(), id)
}

func (r *leaseRepository) BindVehicle(ctx context.Context, id int64, vehicleID int64) error {
	query := `UPDATE leases SET vehicle_id = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, "lease.bind_vehicle", id, query, vehicleID, r.now().UTC(), id)
}

func (r *leaseRepository) exec(ctx context.Context, op string, id int64, query string, args ...any) error {
	logger.DatabaseCall(op, query, "lease_id", id)
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *leaseRepository) List(ctx context.Context, f repository.LeaseFilter) ([]domain.Lease, error) {
	query := `SELECT ` + repository.LeaseColumns + ` FROM leases`

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.UnboundOnly {
		where = append(where, "vehicle_id IS NULL")
	}
	if f.TerminalWithVehicle {
		var in []string
		for _, s := range repository.TerminalStatuses() {
			in = append(in, arg(s))
		}
		where = append(where, "vehicle_id IS NOT NULL", "status IN ("+strings.Join(in, ", ")+")")
	}
	if !f.UpdatedSince.IsZero() {
		where = append(where, "updated_at >= "+arg(f.UpdatedSince))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

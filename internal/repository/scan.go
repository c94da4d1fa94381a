package repository

import (
	"database/sql"
	"time"

	"leasing-backoffice/internal/domain"
)

// LeaseColumns is the select list every store uses with ScanLease.
const LeaseColumns = `id, customer_name, customer_email, customer_phone, national_id,
	car_model, car_segment, car_registration, start_date, end_date, monthly_price,
	status, credit_status, credit_score, credit_checked_at, vehicle_id, created_by,
	created_at, updated_at`

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

func ScanLease(row RowScanner) (*domain.Lease, error) {
	var (
		l            domain.Lease
		phone        sql.NullString
		nationalID   sql.NullString
		segment      sql.NullString
		registration sql.NullString
		score        sql.NullInt64
		checkedAt    sql.NullTime
		vehicleID    sql.NullInt64
		createdBy    sql.NullInt64
	)
	err := row.Scan(
		&l.ID, &l.CustomerName, &l.CustomerEmail, &phone, &nationalID,
		&l.CarModel, &segment, &registration, &l.StartDate, &l.EndDate, &l.MonthlyPrice,
		&l.Status, &l.CreditStatus, &score, &checkedAt, &vehicleID, &createdBy,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.CustomerPhone = phone.String
	l.NationalID = nationalID.String
	l.CarSegment = segment.String
	l.CarRegistration = registration.String
	if score.Valid {
		s := int(score.Int64)
		l.CreditScore = &s
	}
	if checkedAt.Valid {
		t := checkedAt.Time
		l.CreditCheckedAt = &t
	}
	if vehicleID.Valid {
		v := vehicleID.Int64
		l.VehicleID = &v
	}
	if createdBy.Valid {
		c := createdBy.Int64
		l.CreatedBy = &c
	}
	return &l, nil
}

func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func NullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func NullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// TerminalStatuses lists the lease statuses List treats as terminal.
func TerminalStatuses() []domain.LeaseStatus {
	return []domain.LeaseStatus{domain.LeaseStatusCompleted, domain.LeaseStatusDamaged, domain.LeaseStatusCancelled}
}

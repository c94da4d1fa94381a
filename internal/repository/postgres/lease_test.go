package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
)

var leaseColumnNames = []string{
	"id", "customer_name", "customer_email", "customer_phone", "national_id",
	"car_model", "car_segment", "car_registration", "start_date", "end_date", "monthly_price",
	"status", "credit_status", "credit_score", "credit_checked_at", "vehicle_id", "created_by",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*leaseRepository, sqlmock.Sqlmock, time.Time) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo := NewLeaseRepository(db).(*leaseRepository)
	repo.now = func() time.Time { return fixed }
	return repo, mock, fixed
}

func TestLeaseRepository_Create(t *testing.T) {
	repo, mock, fixed := newMockRepo(t)
	ctx := context.Background()

	lease := &domain.Lease{
		CustomerName:  "Ada Jensen",
		CustomerEmail: "ada@example.com",
		CarModel:      "Model X",
		StartDate:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		MonthlyPrice:  decimal.RequireFromString("3000"),
		Status:        domain.LeaseStatusActive,
		CreditStatus:  domain.CreditStatusSkipped,
	}

	mock.ExpectQuery("INSERT INTO leases").
		WithArgs("Ada Jensen", "ada@example.com", nil, nil, "Model X", nil, nil,
			lease.StartDate, lease.EndDate, "3000", "ACTIVE", "SKIPPED", nil, nil, nil, nil, fixed, fixed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	err := repo.Create(ctx, lease)
	require.NoError(t, err)
	assert.Equal(t, int64(42), lease.ID)
	assert.Equal(t, fixed, lease.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_GetByID(t *testing.T) {
	repo, mock, fixed := newMockRepo(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(leaseColumnNames).
			AddRow(42, "Ada Jensen", "ada@example.com", nil, "0101901234",
				"Model X", "SUV", nil, fixed, fixed.AddDate(1, 0, 0), "3000.00",
				"ACTIVE", "APPROVED", 720, fixed, 7, nil, fixed, fixed)
		mock.ExpectQuery("SELECT (.+) FROM leases WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnRows(rows)

		lease, err := repo.GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), lease.ID)
		assert.Equal(t, domain.LeaseStatusActive, lease.Status)
		assert.Equal(t, domain.CreditStatusApproved, lease.CreditStatus)
		assert.Equal(t, "0101901234", lease.NationalID)
		assert.Equal(t, "SUV", lease.CarSegment)
		assert.Empty(t, lease.CarRegistration)
		require.NotNil(t, lease.VehicleID)
		assert.Equal(t, int64(7), *lease.VehicleID)
		require.NotNil(t, lease.CreditScore)
		assert.Equal(t, 720, *lease.CreditScore)
		assert.Nil(t, lease.CreatedBy)
		assert.True(t, lease.MonthlyPrice.Equal(decimal.NewFromInt(3000)))
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM leases WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		lease, err := repo.GetByID(ctx, 99)
		assert.Nil(t, lease)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_UpdateStatus(t *testing.T) {
	repo, mock, fixed := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE leases SET status = \\$1").
		WithArgs("DAMAGED", fixed, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(ctx, 42, domain.LeaseStatusDamaged))

	mock.ExpectExec("UPDATE leases SET status = \\$1").
		WithArgs("DAMAGED", fixed, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 99, domain.LeaseStatusDamaged), domain.ErrNotFound)

	mock.ExpectExec("UPDATE leases SET status = \\$1").
		WillReturnError(errors.New("connection reset"))
	err := repo.UpdateStatus(ctx, 42, domain.LeaseStatusCompleted)
	assert.Error(t, err)
	assert.Empty(t, domain.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_BindVehicle(t *testing.T) {
	repo, mock, fixed := newMockRepo(t)

	mock.ExpectExec("UPDATE leases SET vehicle_id = \\$1").
		WithArgs(int64(7), fixed, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.BindVehicle(context.Background(), 42, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_List(t *testing.T) {
	repo, mock, fixed := newMockRepo(t)
	ctx := context.Background()

	t.Run("Status Filter", func(t *testing.T) {
		rows := sqlmock.NewRows(leaseColumnNames).
			AddRow(1, "A", "a@example.com", nil, nil, "Model X", nil, nil, fixed, fixed.AddDate(1, 0, 0), "3000",
				"ACTIVE", "SKIPPED", nil, nil, nil, nil, fixed, fixed).
			AddRow(2, "B", "b@example.com", nil, nil, "Model Y", nil, nil, fixed, fixed.AddDate(1, 0, 0), "2500",
				"ACTIVE", "PENDING", nil, nil, 9, nil, fixed, fixed)
		mock.ExpectQuery("SELECT (.+) FROM leases WHERE status = \\$1 ORDER BY id").
			WithArgs("ACTIVE").
			WillReturnRows(rows)

		leases, err := repo.List(ctx, repository.LeaseFilter{Status: domain.LeaseStatusActive})
		require.NoError(t, err)
		require.Len(t, leases, 2)
		assert.False(t, leases[0].HasVehicle())
		assert.True(t, leases[1].HasVehicle())
	})

	t.Run("Terminal With Vehicle", func(t *testing.T) {
		since := fixed.Add(-72 * time.Hour)
		mock.ExpectQuery("SELECT (.+) FROM leases WHERE vehicle_id IS NOT NULL AND status IN \\(\\$1, \\$2, \\$3\\) AND updated_at >= \\$4 ORDER BY id LIMIT \\$5").
			WithArgs("COMPLETED", "DAMAGED", "CANCELLED", since, 50).
			WillReturnRows(sqlmock.NewRows(leaseColumnNames))

		leases, err := repo.List(ctx, repository.LeaseFilter{TerminalWithVehicle: true, UpdatedSince: since, Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, leases)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"time"

	"leasing-backoffice/internal/domain"
)

// LeaseFilter narrows List. Zero values mean "no restriction".
type LeaseFilter struct {
	Status domain.LeaseStatus
	// UnboundOnly keeps leases without a vehicle.
	UnboundOnly bool
	// TerminalWithVehicle keeps COMPLETED, DAMAGED and CANCELLED leases that
	// still reference a vehicle.
	TerminalWithVehicle bool
	UpdatedSince        time.Time
	Limit               int
}

type LeaseRepository interface {
	// Create inserts the lease and sets its ID and audit timestamps.
	Create(ctx context.Context, lease *domain.Lease) error
	GetByID(ctx context.Context, id int64) (*domain.Lease, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus) error
	BindVehicle(ctx context.Context, id int64, vehicleID int64) error
	List(ctx context.Context, filter LeaseFilter) ([]domain.Lease, error)
}

// Migrator is implemented by stores that can create their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

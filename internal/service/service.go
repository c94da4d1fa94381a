package service

import (
	"context"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
)

// LeaseService drives leases through creation, vehicle binding and
// termination. Saga results are tri-state: a *domain.LeaseResult whose
// Outcome is success or partial_success, or an error when the saga aborted
// before its commit point.
type LeaseService interface {
	CreateLease(ctx context.Context, in CreateLeaseInput) (*domain.LeaseResult, error)
	EndLease(ctx context.Context, leaseID int64) (*domain.LeaseResult, error)
	SetLeaseStatus(ctx context.Context, leaseID int64, status domain.LeaseStatus) (*domain.LeaseResult, error)
	GetLease(ctx context.Context, leaseID int64) (*domain.Lease, error)
	ListLeases(ctx context.Context, filter repository.LeaseFilter) ([]domain.Lease, error)
	// ReconcileVehicle re-issues the vehicle release of a terminal lease whose
	// vehicle is still LEASED to it. It reports whether a release was sent.
	ReconcileVehicle(ctx context.Context, leaseID int64) (bool, error)
}

// AlertService tells operators about side effects that may not have
// happened.
type AlertService interface {
	NotifyPartialSuccess(ctx context.Context, saga string, result *domain.LeaseResult) error
	NotifyUnallocatedLeases(ctx context.Context, leases []domain.Lease) error
}

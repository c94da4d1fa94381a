package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"leasing-backoffice/internal/collaborator"
	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/metrics"
	"leasing-backoffice/internal/repository"
)

const (
	sagaCreate    = "create_lease"
	sagaEnd       = "end_lease"
	sagaSetStatus = "set_lease_status"

	outcomeAborted = "aborted"

	dateLayout = "2006-01-02"
)

// CreateLeaseInput carries the fields a caller supplies for a new lease.
// Dates are YYYY-MM-DD. NationalID is optional; without it the credit check
// is skipped.
type CreateLeaseInput struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	NationalID      string `json:"customer_cpr"`
	CarModel        string `json:"car_model"`
	CarSegment      string `json:"car_segment"`
	CarRegistration string `json:"car_registration"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	CreatedBy       *int64 `json:"-"`
}

func (in CreateLeaseInput) toLease() (*domain.Lease, error) {
	const op = "lease.create"
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"customer_name", in.CustomerName},
		{"customer_email", in.CustomerEmail},
		{"car_model", in.CarModel},
		{"start_date", in.StartDate},
		{"end_date", in.EndDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(op, "missing fields: %s", strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(in.CustomerEmail); err != nil {
		return nil, domain.NewValidationError(op, "invalid customer_email %q", in.CustomerEmail)
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "invalid start_date %q: expected YYYY-MM-DD", in.StartDate)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "invalid end_date %q: expected YYYY-MM-DD", in.EndDate)
	}
	if !start.Before(end) {
		return nil, domain.NewValidationError(op, "start_date must be before end_date")
	}
	return &domain.Lease{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		NationalID:      strings.TrimSpace(in.NationalID),
		CarModel:        strings.TrimSpace(in.CarModel),
		CarSegment:      strings.TrimSpace(in.CarSegment),
		CarRegistration: strings.TrimSpace(in.CarRegistration),
		StartDate:       start,
		EndDate:         end,
		Status:          domain.LeaseStatusActive,
		CreatedBy:       in.CreatedBy,
	}, nil
}

type LeaseServiceConfig struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type leaseService struct {
	repo    repository.LeaseRepository
	fleet   collaborator.Fleet
	damages collaborator.DamageRegistry
	credit  collaborator.CreditChecker
	alerts  AlertService
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLeaseService panics when a store or collaborator is missing. alerts and
// m may be nil.
func NewLeaseService(
	repo repository.LeaseRepository,
	fleet collaborator.Fleet,
	damages collaborator.DamageRegistry,
	credit collaborator.CreditChecker,
	alerts AlertService,
	m *metrics.Metrics,
	cfg LeaseServiceConfig,
) LeaseService {
	switch {
	case repo == nil:
		panic("service: lease repository is required")
	case fleet == nil:
		panic("service: fleet client is required")
	case damages == nil:
		panic("service: damage client is required")
	case credit == nil:
		panic("service: credit client is required")
	}
	if alerts == nil {
		alerts = NewLogAlertService()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &leaseService{
		repo:    repo,
		fleet:   fleet,
		damages: damages,
		credit:  credit,
		alerts:  alerts,
		metrics: m,
		now:     now,
	}
}

// CreateLease runs credit check, price resolution, persistence, allocation
// and binding in that order. Once the lease is persisted every later failure
// is reported on the result instead of as an error.
func (s *leaseService) CreateLease(ctx context.Context, in CreateLeaseInput) (*domain.LeaseResult, error) {
	lease, err := in.toLease()
	if err != nil {
		return nil, s.abort(sagaCreate, 0, "validate", err)
	}
	// Steps run to their own timeouts even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	credit := s.checkCredit(ctx, lease.NationalID)
	lease.CreditStatus = credit.Status
	lease.CreditScore = credit.Score
	if !credit.CheckedAt.IsZero() {
		checkedAt := credit.CheckedAt
		lease.CreditCheckedAt = &checkedAt
	}

	price, err := s.fleet.ResolvePriceByModel(ctx, lease.CarModel)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			err = &domain.Error{
				Kind: domain.KindConflict,
				Op:   "lease.create",
				Msg:  fmt.Sprintf("no available priced vehicle for model %q", lease.CarModel),
				Err:  err,
			}
		}
		return nil, s.abort(sagaCreate, 0, "resolve_price", err)
	}
	lease.MonthlyPrice = price.MonthlyPrice
	logger.SagaStep(sagaCreate, 0, "resolve_price", "ok", "model", lease.CarModel, "monthly_price", price.MonthlyPrice.String())

	if err := lease.Validate(); err != nil {
		return nil, s.abort(sagaCreate, 0, "validate", err)
	}
	if err := s.repo.Create(ctx, lease); err != nil {
		return nil, s.abort(sagaCreate, 0, "persist", err)
	}
	logger.SagaStep(sagaCreate, lease.ID, "persist", "ok", "credit_status", lease.CreditStatus)

	result := &domain.LeaseResult{Lease: lease, CreditReason: credit.Reason}
	result.AllocationError = s.allocate(ctx, lease)

	return s.finish(ctx, sagaCreate, result), nil
}

func (s *leaseService) checkCredit(ctx context.Context, nationalID string) *domain.CreditCheckResult {
	if nationalID == "" {
		logger.SagaStep(sagaCreate, 0, "credit_check", "skipped")
		return &domain.CreditCheckResult{Status: domain.CreditStatusSkipped, Reason: domain.CreditReasonNoIdentifier}
	}
	res, err := s.credit.CheckCredit(ctx, nationalID)
	if err != nil {
		logger.SagaStep(sagaCreate, 0, "credit_check", "warning", "error", err)
		return &domain.CreditCheckResult{Status: domain.CreditStatusPending, Reason: domain.CreditReasonUnavailable}
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = s.now().UTC()
	}
	logger.SagaStep(sagaCreate, 0, "credit_check", "ok", "credit_status", res.Status)
	return res
}

// allocate binds a vehicle to the persisted lease and returns the
// allocation error to report, empty on success.
func (s *leaseService) allocate(ctx context.Context, lease *domain.Lease) string {
	vehicle, err := s.fleet.AllocateVehicle(ctx, lease.CarModel, lease.ID)
	if err != nil {
		logger.SagaStep(sagaCreate, lease.ID, "allocate", "warning", "error", err)
		if domain.KindOf(err) == domain.KindNotFound {
			return fmt.Sprintf("no available vehicle for model %q", lease.CarModel)
		}
		return fmt.Sprintf("vehicle allocation failed: %v", err)
	}
	if err := s.repo.BindVehicle(ctx, lease.ID, vehicle.ID); err != nil {
		logger.SagaStep(sagaCreate, lease.ID, "bind", "warning", "vehicle_id", vehicle.ID, "error", err)
		return fmt.Sprintf("vehicle %d allocated but not bound to lease: %v", vehicle.ID, err)
	}
	vehicleID := vehicle.ID
	lease.VehicleID = &vehicleID
	lease.UpdatedAt = s.now().UTC()
	logger.SagaStep(sagaCreate, lease.ID, "bind", "ok", "vehicle_id", vehicle.ID)
	return ""
}

// EndLease resolves the terminal status from open damages, persists it and
// then releases the bound vehicle. A failed damage query leaves the lease
// untouched and is retryable.
func (s *leaseService) EndLease(ctx context.Context, leaseID int64) (*domain.LeaseResult, error) {
	ctx = context.WithoutCancel(ctx)

	lease, err := s.repo.GetByID(ctx, leaseID)
	if err != nil {
		return nil, s.abort(sagaEnd, leaseID, "load", err)
	}
	if !lease.Status.CanEnd() {
		err := domain.NewConflictError("lease.end", "lease %d is %s and cannot be ended", leaseID, lease.Status)
		return nil, s.abort(sagaEnd, leaseID, "guard", err)
	}

	damages, err := s.damages.QueryOpenDamages(ctx, leaseID)
	if err != nil {
		if !domain.Retryable(err) {
			err = domain.NewUnavailableError("lease.end", err)
		}
		return nil, s.abort(sagaEnd, leaseID, "damage_query", err)
	}
	status := domain.LeaseStatusCompleted
	if open := domain.CountOpen(damages); open > 0 {
		status = domain.LeaseStatusDamaged
		logger.SagaStep(sagaEnd, leaseID, "damage_query", "ok", "open_damages", open)
	} else {
		logger.SagaStep(sagaEnd, leaseID, "damage_query", "ok", "open_damages", 0)
	}

	if err := s.repo.UpdateStatus(ctx, leaseID, status); err != nil {
		return nil, s.abort(sagaEnd, leaseID, "persist", err)
	}
	lease.Status = status
	lease.UpdatedAt = s.now().UTC()
	logger.SagaStep(sagaEnd, leaseID, "persist", "ok", "status", status)

	result := &domain.LeaseResult{Lease: lease}
	if lease.HasVehicle() {
		result.VehicleUpdateWarning = s.releaseVehicle(ctx, sagaEnd, lease, status.VehicleStatusOnEnd())
	}
	return s.finish(ctx, sagaEnd, result), nil
}

// SetLeaseStatus overwrites the status without consulting the lifecycle.
// COMPLETED and CANCELLED also hand the bound vehicle back as AVAILABLE,
// but only while the fleet still has it bound to this lease. Setting the
// status the lease already has changes nothing.
func (s *leaseService) SetLeaseStatus(ctx context.Context, leaseID int64, status domain.LeaseStatus) (*domain.LeaseResult, error) {
	if !status.Valid() {
		err := domain.NewValidationError("lease.set_status", "unknown lease status %q", status)
		return nil, s.abort(sagaSetStatus, leaseID, "validate", err)
	}
	ctx = context.WithoutCancel(ctx)

	lease, err := s.repo.GetByID(ctx, leaseID)
	if err != nil {
		return nil, s.abort(sagaSetStatus, leaseID, "load", err)
	}
	if lease.Status == status {
		logger.SagaStep(sagaSetStatus, leaseID, "persist", "unchanged", "status", status)
		return s.finish(ctx, sagaSetStatus, &domain.LeaseResult{Lease: lease}), nil
	}
	if err := s.repo.UpdateStatus(ctx, leaseID, status); err != nil {
		return nil, s.abort(sagaSetStatus, leaseID, "persist", err)
	}
	previous := lease.Status
	lease.Status = status
	lease.UpdatedAt = s.now().UTC()
	logger.SagaStep(sagaSetStatus, leaseID, "persist", "ok", "from", previous, "to", status)

	result := &domain.LeaseResult{Lease: lease}
	if status.ReleasesVehicle() && lease.HasVehicle() {
		result.VehicleUpdateWarning = s.releaseIfBound(ctx, lease, domain.VehicleStatusAvailable)
	}
	return s.finish(ctx, sagaSetStatus, result), nil
}

// releaseIfBound releases the lease's vehicle unless the fleet has already
// moved it on; a lease keeps its vehicle reference after it ends, so the
// vehicle may meanwhile be bound to another lease.
func (s *leaseService) releaseIfBound(ctx context.Context, lease *domain.Lease, target domain.VehicleStatus) string {
	vehicleID := *lease.VehicleID
	vehicle, err := s.fleet.GetVehicle(ctx, vehicleID)
	if err != nil {
		logger.SagaStep(sagaSetStatus, lease.ID, "release_vehicle", "warning", "vehicle_id", vehicleID, "error", err)
		return fmt.Sprintf("vehicle %d was not set to %s: %v", vehicleID, target, err)
	}
	if !vehicle.BoundTo(lease.ID) {
		logger.SagaStep(sagaSetStatus, lease.ID, "release_vehicle", "skipped", "vehicle_id", vehicleID, "vehicle_status", vehicle.Status)
		return ""
	}
	return s.releaseVehicle(ctx, sagaSetStatus, lease, target)
}

// releaseVehicle sets the bound vehicle's status and clears its lease
// reference. It returns the warning to report, empty on success.
func (s *leaseService) releaseVehicle(ctx context.Context, saga string, lease *domain.Lease, target domain.VehicleStatus) string {
	vehicleID := *lease.VehicleID
	if _, err := s.fleet.SetVehicleStatus(ctx, vehicleID, target, nil); err != nil {
		logger.SagaStep(saga, lease.ID, "release_vehicle", "warning", "vehicle_id", vehicleID, "error", err)
		return fmt.Sprintf("vehicle %d was not set to %s: %v", vehicleID, target, err)
	}
	logger.SagaStep(saga, lease.ID, "release_vehicle", "ok", "vehicle_id", vehicleID, "vehicle_status", target)
	return ""
}

func (s *leaseService) GetLease(ctx context.Context, leaseID int64) (*domain.Lease, error) {
	return s.repo.GetByID(ctx, leaseID)
}

func (s *leaseService) ListLeases(ctx context.Context, filter repository.LeaseFilter) ([]domain.Lease, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("lease.list", "unknown lease status %q", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *leaseService) ReconcileVehicle(ctx context.Context, leaseID int64) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	lease, err := s.repo.GetByID(ctx, leaseID)
	if err != nil {
		return false, err
	}
	if !lease.Status.Terminal() || !lease.HasVehicle() {
		return false, nil
	}
	vehicle, err := s.fleet.GetVehicle(ctx, *lease.VehicleID)
	if err != nil {
		return false, err
	}
	if !vehicle.BoundTo(lease.ID) {
		return false, nil
	}
	target := lease.Status.VehicleStatusOnEnd()
	if _, err := s.fleet.SetVehicleStatus(ctx, vehicle.ID, target, nil); err != nil {
		return false, err
	}
	logger.Info("Reconciled vehicle release", "lease_id", lease.ID, "vehicle_id", vehicle.ID, "vehicle_status", target)
	return true, nil
}

func (s *leaseService) abort(saga string, leaseID int64, step string, err error) error {
	logger.SagaStep(saga, leaseID, step, outcomeAborted, "error", err, "kind", domain.KindOf(err))
	s.metrics.ObserveSaga(saga, outcomeAborted)
	return err
}

func (s *leaseService) finish(ctx context.Context, saga string, result *domain.LeaseResult) *domain.LeaseResult {
	result.Settle()
	s.metrics.ObserveSaga(saga, string(result.Outcome))
	if result.Partial() {
		if err := s.alerts.NotifyPartialSuccess(ctx, saga, result); err != nil {
			logger.Warn("Failed to send partial-success alert", "saga", saga, "lease_id", result.Lease.ID, "error", err)
		}
	}
	logger.Info("Saga finished", "saga", saga, "lease_id", result.Lease.ID, "outcome", result.Outcome, "status", result.Lease.Status)
	return result
}

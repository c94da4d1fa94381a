package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaseStatus string

const (
	LeaseStatusActive    LeaseStatus = "ACTIVE"
	LeaseStatusCompleted LeaseStatus = "COMPLETED"
	LeaseStatusDamaged   LeaseStatus = "DAMAGED"
	LeaseStatusCancelled LeaseStatus = "CANCELLED"
)

// leaseTransitions lists the states reachable from each state. Terminal
// states have no entry.
var leaseTransitions = map[LeaseStatus][]LeaseStatus{
	LeaseStatusActive: {LeaseStatusCompleted, LeaseStatusDamaged, LeaseStatusCancelled},
}

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseStatusActive, LeaseStatusCompleted, LeaseStatusDamaged, LeaseStatusCancelled:
		return true
	}
	return false
}

func (s LeaseStatus) Terminal() bool {
	return s.Valid() && len(leaseTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s through the
// lifecycle. Administrative overrides bypass this check.
func (s LeaseStatus) CanTransitionTo(next LeaseStatus) bool {
	for _, candidate := range leaseTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CanEnd reports whether the termination saga may run from s: both of its
// possible outcomes must be reachable.
func (s LeaseStatus) CanEnd() bool {
	return s.CanTransitionTo(LeaseStatusCompleted) && s.CanTransitionTo(LeaseStatusDamaged)
}

// ReleasesVehicle reports whether setting a lease to s hands its vehicle
// back to the fleet as AVAILABLE.
func (s LeaseStatus) ReleasesVehicle() bool {
	return s == LeaseStatusCompleted || s == LeaseStatusCancelled
}

// VehicleStatusOnEnd mirrors a terminal lease status onto the bound vehicle.
func (s LeaseStatus) VehicleStatusOnEnd() VehicleStatus {
	if s == LeaseStatusDamaged {
		return VehicleStatusDamaged
	}
	return VehicleStatusAvailable
}

type Lease struct {
	ID              int64           `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	NationalID      string          `json:"-"`
	CarModel        string          `json:"car_model"`
	CarSegment      string          `json:"car_segment,omitempty"`
	CarRegistration string          `json:"car_registration,omitempty"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	MonthlyPrice    decimal.Decimal `json:"monthly_price"`
	Status          LeaseStatus     `json:"status"`
	CreditStatus    CreditStatus    `json:"credit_status"`
	CreditScore     *int            `json:"credit_score,omitempty"`
	CreditCheckedAt *time.Time      `json:"credit_checked_at,omitempty"`
	VehicleID       *int64          `json:"vehicle_id,omitempty"`
	CreatedBy       *int64          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Validate checks the record-level invariants that hold for every
// persisted lease.
func (l *Lease) Validate() error {
	const op = "lease.validate"
	if !l.StartDate.Before(l.EndDate) {
		return NewValidationError(op, "start_date must be before end_date")
	}
	if l.MonthlyPrice.IsNegative() {
		return NewValidationError(op, "monthly_price must not be negative")
	}
	if !l.Status.Valid() {
		return NewValidationError(op, "unknown lease status %q", l.Status)
	}
	if !l.CreditStatus.Valid() {
		return NewValidationError(op, "unknown credit status %q", l.CreditStatus)
	}
	return nil
}

func (l *Lease) HasVehicle() bool {
	return l.VehicleID != nil
}

type LeaseOutcome string

const (
	OutcomeSuccess        LeaseOutcome = "success"
	OutcomePartialSuccess LeaseOutcome = "partial_success"
)

// LeaseResult is what every saga returns when its commit point was reached.
// The warning fields are never persisted; they tell the caller which
// best-effort side effect may not have happened.
type LeaseResult struct {
	Lease                *Lease       `json:"lease"`
	Outcome              LeaseOutcome `json:"outcome"`
	CreditReason         string       `json:"credit_reason,omitempty"`
	AllocationError      string       `json:"allocation_error,omitempty"`
	VehicleUpdateWarning string       `json:"vehicle_update_warning,omitempty"`
}

// Settle derives the outcome from the warning fields.
func (r *LeaseResult) Settle() *LeaseResult {
	if r.AllocationError != "" || r.VehicleUpdateWarning != "" {
		r.Outcome = OutcomePartialSuccess
	} else {
		r.Outcome = OutcomeSuccess
	}
	return r
}

func (r *LeaseResult) Partial() bool {
	return r.Outcome == OutcomePartialSuccess
}

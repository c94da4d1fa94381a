package jobs

import (
	"context"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
)

// ReconcileSummary counts what one reconciliation pass did.
type ReconcileSummary struct {
	Checked    int
	Reconciled int
	Failed     int
}

// ReconcileVehicleRelease re-issues the vehicle release for terminal leases
// whose vehicle is still bound to them
func (jr *JobRunner) ReconcileVehicleRelease() {
	jr.runWithRecovery("ReconcileVehicleRelease", func() {
		summary, err := jr.Reconcile(context.Background())
		if err != nil {
			jr.log().Error("Failed to list leases for reconciliation", "error", err)
			return
		}
		jr.log().Info("Vehicle release reconciliation finished",
			"checked", summary.Checked,
			"reconciled", summary.Reconciled,
			"failed", summary.Failed)
	})
}

// Reconcile runs one reconciliation pass over terminal leases updated within
// the configured lookback. A failure on one lease does not stop the pass.
func (jr *JobRunner) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	since := jr.now().Add(-jr.config.Scheduler.ReconcileLookback())
	leases, err := jr.leases.ListLeases(ctx, repository.LeaseFilter{
		TerminalWithVehicle: true,
		UpdatedSince:        since,
	})
	if err != nil {
		return summary, err
	}

	for _, lease := range leases {
		summary.Checked++
		fixed, err := jr.leases.ReconcileVehicle(ctx, lease.ID)
		if err != nil {
			summary.Failed++
			jr.log().Warn("Failed to reconcile vehicle release", "lease_id", lease.ID, "error", err, "retryable", domain.Retryable(err))
			continue
		}
		if fixed {
			summary.Reconciled++
		}
	}
	return summary, nil
}

// ReportUnallocatedLeases alerts operators about ACTIVE leases that never
// got a vehicle
func (jr *JobRunner) ReportUnallocatedLeases() {
	jr.runWithRecovery("ReportUnallocatedLeases", func() {
		ctx := context.Background()

		leases, err := jr.leases.ListLeases(ctx, repository.LeaseFilter{
			Status:      domain.LeaseStatusActive,
			UnboundOnly: true,
		})
		if err != nil {
			jr.log().Error("Failed to list unallocated leases", "error", err)
			return
		}
		if len(leases) == 0 {
			jr.log().Info("No unallocated leases")
			return
		}

		if err := jr.alerts.NotifyUnallocatedLeases(ctx, leases); err != nil {
			jr.log().Error("Failed to report unallocated leases", "count", len(leases), "error", err)
			return
		}
		jr.log().Info("Reported unallocated leases", "count", len(leases))
	})
}

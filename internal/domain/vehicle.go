package domain

import "github.com/shopspring/decimal"

type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "AVAILABLE"
	VehicleStatusLeased    VehicleStatus = "LEASED"
	VehicleStatusDamaged   VehicleStatus = "DAMAGED"
	VehicleStatusRepair    VehicleStatus = "REPAIR"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusLeased, VehicleStatusDamaged, VehicleStatusRepair:
		return true
	}
	return false
}

// Vehicle is owned by the fleet registry; the lease component only reads it.
type Vehicle struct {
	ID               int64           `json:"id"`
	ModelName        string          `json:"model_name"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	DeliveryLocation string          `json:"delivery_location,omitempty"`
	Status           VehicleStatus   `json:"status"`
	CurrentLeaseID   *int64          `json:"current_lease_id"`
}

// BoundTo reports whether the vehicle is currently leased under leaseID.
func (v *Vehicle) BoundTo(leaseID int64) bool {
	return v.Status == VehicleStatusLeased && v.CurrentLeaseID != nil && *v.CurrentLeaseID == leaseID
}

type ModelPrice struct {
	ModelName        string          `json:"model_name"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	ExampleVehicleID int64           `json:"example_vehicle_id"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DamageStatus string

const (
	DamageStatusOpen   DamageStatus = "OPEN"
	DamageStatusClosed DamageStatus = "CLOSED"
)

// Damage is owned by the damage registry.
type Damage struct {
	ID            int64           `json:"id"`
	LeaseID       int64           `json:"lease_id"`
	VehicleID     *int64          `json:"vehicle_id"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Status        DamageStatus    `json:"status"`
	DetectedAt    time.Time       `json:"detected_at"`
}

// CountOpen returns how many of the damages are still OPEN.
func CountOpen(damages []Damage) int {
	n := 0
	for _, d := range damages {
		if d.Status == DamageStatusOpen {
			n++
		}
	}
	return n
}

package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"leasing-backoffice/internal/domain"
)

// DamageRegistry answers whether a lease still has open damages.
type DamageRegistry interface {
	QueryOpenDamages(ctx context.Context, leaseID int64) ([]domain.Damage, error)
}

type DamageClient struct {
	*baseClient
}

var _ DamageRegistry = (*DamageClient)(nil)

func NewDamageClient(baseURL string, timeout time.Duration, opts ...Option) *DamageClient {
	return &DamageClient{baseClient: newBaseClient("damage", baseURL, timeout, opts...)}
}

type damageWire struct {
	ID            int64           `json:"id"`
	LeaseID       int64           `json:"lease_id"`
	VehicleID     *int64          `json:"vehicle_id"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Status        string          `json:"status"`
	DetectedAt    string          `json:"detected_at"`
}

// QueryOpenDamages lists OPEN damages for the lease. The registry is asked to
// filter, and the result is filtered again so a registry that ignores the
// status parameter cannot make closed damages count.
func (c *DamageClient) QueryOpenDamages(ctx context.Context, leaseID int64) ([]domain.Damage, error) {
	var out []damageWire
	path := fmt.Sprintf("/damages?lease_id=%d&status=%s", leaseID, domain.DamageStatusOpen)
	if err := c.do(ctx, "query_open", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	damages := make([]domain.Damage, 0, len(out))
	for _, w := range out {
		if domain.DamageStatus(w.Status) != domain.DamageStatusOpen || w.LeaseID != leaseID {
			continue
		}
		damages = append(damages, domain.Damage{
			ID:            w.ID,
			LeaseID:       w.LeaseID,
			VehicleID:     w.VehicleID,
			Category:      w.Category,
			Description:   w.Description,
			EstimatedCost: w.EstimatedCost,
			Status:        domain.DamageStatusOpen,
			DetectedAt:    parseTimestamp(w.DetectedAt),
		})
	}
	return damages, nil
}

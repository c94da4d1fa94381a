package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"leasing-backoffice/internal/domain"
)

// Fleet is the vehicle registry as seen by the lease saga. The registry
// serialises allocation per vehicle; callers hold no lock.
type Fleet interface {
	ResolvePriceByModel(ctx context.Context, model string) (*domain.ModelPrice, error)
	AllocateVehicle(ctx context.Context, model string, leaseID int64) (*domain.Vehicle, error)
	SetVehicleStatus(ctx context.Context, vehicleID int64, status domain.VehicleStatus, leaseID *int64) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
}

type FleetClient struct {
	*baseClient
}

var _ Fleet = (*FleetClient)(nil)

func NewFleetClient(baseURL string, timeout time.Duration, opts ...Option) *FleetClient {
	return &FleetClient{baseClient: newBaseClient("fleet", baseURL, timeout, opts...)}
}

type vehicleWire struct {
	ID               int64           `json:"id"`
	ModelName        string          `json:"model_name"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	DeliveryLocation *string         `json:"delivery_location"`
	Status           string          `json:"status"`
	CurrentLeaseID   *int64          `json:"current_lease_id"`
}

func (w vehicleWire) toDomain(op string) (*domain.Vehicle, error) {
	status := domain.VehicleStatus(w.Status)
	if !status.Valid() {
		return nil, domain.NewUnavailableError(op, fmt.Errorf("fleet returned unknown vehicle status %q", w.Status))
	}
	v := &domain.Vehicle{
		ID:             w.ID,
		ModelName:      w.ModelName,
		MonthlyPrice:   w.MonthlyPrice,
		Status:         status,
		CurrentLeaseID: w.CurrentLeaseID,
	}
	if w.DeliveryLocation != nil {
		v.DeliveryLocation = *w.DeliveryLocation
	}
	return v, nil
}

type pricingWire struct {
	ModelName        string           `json:"model_name"`
	MonthlyPrice     *decimal.Decimal `json:"monthly_price"`
	ExampleVehicleID int64            `json:"example_vehicle_id"`
}

// ResolvePriceByModel returns the monthly price of the first AVAILABLE
// vehicle of the model. NotFound means nothing of that model is available.
func (c *FleetClient) ResolvePriceByModel(ctx context.Context, model string) (*domain.ModelPrice, error) {
	var out pricingWire
	path := "/vehicles/pricing/by-model?model_name=" + url.QueryEscape(model)
	if err := c.do(ctx, "resolve_price", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.MonthlyPrice == nil {
		return nil, domain.NewNotFoundError("fleet.resolve_price", "no monthly price for model %q", model)
	}
	return &domain.ModelPrice{
		ModelName:        out.ModelName,
		MonthlyPrice:     *out.MonthlyPrice,
		ExampleVehicleID: out.ExampleVehicleID,
	}, nil
}

type allocateRequest struct {
	ModelName string `json:"model_name"`
	LeaseID   int64  `json:"lease_id"`
}

// AllocateVehicle asks the registry to flip one AVAILABLE vehicle of the
// model to LEASED under leaseID. Re-sending for the same lease is safe on
// the registry side.
func (c *FleetClient) AllocateVehicle(ctx context.Context, model string, leaseID int64) (*domain.Vehicle, error) {
	var out vehicleWire
	req := allocateRequest{ModelName: model, LeaseID: leaseID}
	if err := c.do(ctx, "allocate", http.MethodPost, "/vehicles/allocate", req, &out); err != nil {
		return nil, err
	}
	return out.toDomain("fleet.allocate")
}

type setStatusRequest struct {
	Status  domain.VehicleStatus `json:"status"`
	LeaseID *int64               `json:"lease_id"`
}

// SetVehicleStatus overwrites the vehicle's status and current lease. A nil
// leaseID clears the binding.
func (c *FleetClient) SetVehicleStatus(ctx context.Context, vehicleID int64, status domain.VehicleStatus, leaseID *int64) (*domain.Vehicle, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("fleet.set_status", "unknown vehicle status %q", status)
	}
	var out vehicleWire
	req := setStatusRequest{Status: status, LeaseID: leaseID}
	path := fmt.Sprintf("/vehicles/%d/status", vehicleID)
	if err := c.do(ctx, "set_status", http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	return out.toDomain("fleet.set_status")
}

func (c *FleetClient) GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	var out vehicleWire
	path := fmt.Sprintf("/vehicles/%d", vehicleID)
	if err := c.do(ctx, "get_vehicle", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.toDomain("fleet.get_vehicle")
}

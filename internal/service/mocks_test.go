package service

import (
	"context"
	"sync"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
)

// MockLeaseRepo
type MockLeaseRepo struct {
	mock.Mock
}

func (m *MockLeaseRepo) Create(ctx context.Context, lease *domain.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}
func (m *MockLeaseRepo) GetByID(ctx context.Context, id int64) (*domain.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}
func (m *MockLeaseRepo) UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockLeaseRepo) BindVehicle(ctx context.Context, id int64, vehicleID int64) error {
	args := m.Called(ctx, id, vehicleID)
	return args.Error(0)
}
func (m *MockLeaseRepo) List(ctx context.Context, filter repository.LeaseFilter) ([]domain.Lease, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lease), args.Error(1)
}

// MockFleet
type MockFleet struct {
	mock.Mock
}

func (m *MockFleet) ResolvePriceByModel(ctx context.Context, model string) (*domain.ModelPrice, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelPrice), args.Error(1)
}
func (m *MockFleet) AllocateVehicle(ctx context.Context, model string, leaseID int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, model, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockFleet) SetVehicleStatus(ctx context.Context, vehicleID int64, status domain.VehicleStatus, leaseID *int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, vehicleID, status, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockFleet) GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

// MockDamageRegistry
type MockDamageRegistry struct {
	mock.Mock
}

func (m *MockDamageRegistry) QueryOpenDamages(ctx context.Context, leaseID int64) ([]domain.Damage, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Damage), args.Error(1)
}

// MockCreditChecker
type MockCreditChecker struct {
	mock.Mock
}

func (m *MockCreditChecker) CheckCredit(ctx context.Context, nationalID string) (*domain.CreditCheckResult, error) {
	args := m.Called(ctx, nationalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditCheckResult), args.Error(1)
}

// MockAlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) NotifyPartialSuccess(ctx context.Context, saga string, result *domain.LeaseResult) error {
	args := m.Called(ctx, saga, result)
	return args.Error(0)
}
func (m *MockAlertService) NotifyUnallocatedLeases(ctx context.Context, leases []domain.Lease) error {
	args := m.Called(ctx, leases)
	return args.Error(0)
}

// MockMailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

// fakeFleet is an in-memory vehicle registry that enforces one lease per
// vehicle the way the real registry does.
type fakeFleet struct {
	mu       sync.Mutex
	vehicles []*domain.Vehicle
}

func (f *fakeFleet) ResolvePriceByModel(ctx context.Context, model string) (*domain.ModelPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		if v.ModelName == model && v.Status == domain.VehicleStatusAvailable {
			return &domain.ModelPrice{ModelName: model, MonthlyPrice: v.MonthlyPrice, ExampleVehicleID: v.ID}, nil
		}
	}
	return nil, domain.NewNotFoundError("fleet.resolve_price", "no available vehicle for model")
}

func (f *fakeFleet) AllocateVehicle(ctx context.Context, model string, leaseID int64) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		if v.ModelName == model && v.Status == domain.VehicleStatusAvailable {
			v.Status = domain.VehicleStatusLeased
			id := leaseID
			v.CurrentLeaseID = &id
			copied := *v
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("fleet.allocate", "no available vehicle for model")
}

func (f *fakeFleet) SetVehicleStatus(ctx context.Context, vehicleID int64, status domain.VehicleStatus, leaseID *int64) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.find(vehicleID)
	if v == nil {
		return nil, domain.NewNotFoundError("fleet.set_status", "vehicle not found")
	}
	v.Status = status
	v.CurrentLeaseID = leaseID
	copied := *v
	return &copied, nil
}

func (f *fakeFleet) GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.find(vehicleID)
	if v == nil {
		return nil, domain.NewNotFoundError("fleet.get_vehicle", "vehicle not found")
	}
	copied := *v
	return &copied, nil
}

func (f *fakeFleet) find(id int64) *domain.Vehicle {
	for _, v := range f.vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

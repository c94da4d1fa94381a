package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
	"leasing-backoffice/internal/security"
	"leasing-backoffice/internal/service"
)

type MockLeaseService struct {
	mock.Mock
}

func (m *MockLeaseService) CreateLease(ctx context.Context, in service.CreateLeaseInput) (*domain.LeaseResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaseResult), args.Error(1)
}
func (m *MockLeaseService) EndLease(ctx context.Context, leaseID int64) (*domain.LeaseResult, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaseResult), args.Error(1)
}
func (m *MockLeaseService) SetLeaseStatus(ctx context.Context, leaseID int64, status domain.LeaseStatus) (*domain.LeaseResult, error) {
	args := m.Called(ctx, leaseID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaseResult), args.Error(1)
}
func (m *MockLeaseService) GetLease(ctx context.Context, leaseID int64) (*domain.Lease, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}
func (m *MockLeaseService) ListLeases(ctx context.Context, filter repository.LeaseFilter) ([]domain.Lease, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lease), args.Error(1)
}
func (m *MockLeaseService) ReconcileVehicle(ctx context.Context, leaseID int64) (bool, error) {
	args := m.Called(ctx, leaseID)
	return args.Bool(0), args.Error(1)
}

const testSecret = "handler-test-secret"

func newTestRouter(svc service.LeaseService) http.Handler {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return NewRouter(svc, security.NewTokenManager(testSecret, time.Hour), metrics)
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := security.NewTokenManager(testSecret, time.Hour).GenerateAccessToken(userID, "tester", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleLease(id int64) *domain.Lease {
	vehicleID := int64(7)
	return &domain.Lease{
		ID:            id,
		CustomerName:  "Ada Jensen",
		CustomerEmail: "ada@example.com",
		NationalID:    "0101901234",
		CarModel:      "Model X",
		StartDate:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		MonthlyPrice:  decimal.NewFromInt(3000),
		Status:        domain.LeaseStatusActive,
		CreditStatus:  domain.CreditStatusApproved,
		VehicleID:     &vehicleID,
	}
}

func TestAuth(t *testing.T) {
	svc := new(MockLeaseService)
	router := newTestRouter(svc)

	t.Run("Health Is Public", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	})

	t.Run("Metrics Is Public", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing Token", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/leases", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/leases", "Bearer nope", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Role Not Allowed", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/leases/1/end", bearer(t, 3, "SKADE"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "SKADE")
		svc.AssertNotCalled(t, "EndLease", mock.Anything, mock.Anything)
	})
}

func TestLeaseHandler_CreateLease(t *testing.T) {
	svc := new(MockLeaseService)
	router := newTestRouter(svc)

	t.Run("Partial Success", func(t *testing.T) {
		lease := sampleLease(44)
		lease.VehicleID = nil
		svc.On("CreateLease", mock.Anything, mock.MatchedBy(func(in service.CreateLeaseInput) bool {
			return in.CarModel == "Model X" && in.NationalID == "0101901234" &&
				in.CreatedBy != nil && *in.CreatedBy == 12
		})).Return((&domain.LeaseResult{
			Lease:           lease,
			CreditReason:    "ok",
			AllocationError: `no available vehicle for model "Model X"`,
		}).Settle(), nil).Once()

		body := `{"customer_name":"Ada Jensen","customer_email":"ada@example.com","customer_cpr":"0101901234",
			"car_model":"Model X","start_date":"2024-07-01","end_date":"2025-07-01","monthly_price":2999}`
		rec := do(t, router, http.MethodPost, "/leases", bearer(t, 12, "DATAREG"), body)

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "partial_success", resp["outcome"])
		assert.Contains(t, resp["allocation_error"], "no available vehicle")
		leaseJSON := resp["lease"].(map[string]any)
		assert.Equal(t, float64(44), leaseJSON["id"])
		assert.NotContains(t, leaseJSON, "national_id")
		assert.NotContains(t, leaseJSON, "vehicle_id")
	})

	t.Run("Validation Error", func(t *testing.T) {
		svc.On("CreateLease", mock.Anything, mock.Anything).
			Return(nil, domain.NewValidationError("lease.create", "missing fields: car_model")).Once()

		rec := do(t, router, http.MethodPost, "/leases", bearer(t, 12, "ADMIN"), `{"customer_name":"Ada"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "missing fields: car_model", resp["error"])
		assert.Equal(t, "VALIDATION", resp["kind"])
	})

	t.Run("No Priced Vehicle", func(t *testing.T) {
		svc.On("CreateLease", mock.Anything, mock.Anything).
			Return(nil, domain.NewConflictError("lease.create", "no available priced vehicle")).Once()

		rec := do(t, router, http.MethodPost, "/leases", bearer(t, 12, "LEDELSE"), `{}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Bad JSON", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/leases", bearer(t, 12, "DATAREG"), `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLeaseHandler_EndLease(t *testing.T) {
	svc := new(MockLeaseService)
	router := newTestRouter(svc)

	t.Run("Damaged", func(t *testing.T) {
		lease := sampleLease(42)
		lease.Status = domain.LeaseStatusDamaged
		svc.On("EndLease", mock.Anything, int64(42)).Return((&domain.LeaseResult{Lease: lease}).Settle(), nil).Once()

		rec := do(t, router, http.MethodPost, "/leases/42/end", bearer(t, 1, "DATAREG"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "success", resp["outcome"])
		assert.Equal(t, "DAMAGED", resp["lease"].(map[string]any)["status"])
	})

	t.Run("Damage Registry Down", func(t *testing.T) {
		svc.On("EndLease", mock.Anything, int64(43)).
			Return(nil, domain.NewUnavailableError("damage.query_open", errors.New("connection refused"))).Once()

		rec := do(t, router, http.MethodPost, "/leases/43/end", bearer(t, 1, "DATAREG"), "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["retryable"])
	})

	t.Run("Unclassified Error Is Hidden", func(t *testing.T) {
		svc.On("EndLease", mock.Anything, int64(44)).Return(nil, errors.New("pq: password authentication failed")).Once()

		rec := do(t, router, http.MethodPost, "/leases/44/end", bearer(t, 1, "ADMIN"), "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
	})
}

func TestLeaseHandler_SetLeaseStatus(t *testing.T) {
	svc := new(MockLeaseService)
	router := newTestRouter(svc)

	lease := sampleLease(42)
	lease.Status = domain.LeaseStatusCancelled
	svc.On("SetLeaseStatus", mock.Anything, int64(42), domain.LeaseStatusCancelled).
		Return((&domain.LeaseResult{Lease: lease}).Settle(), nil)

	rec := do(t, router, http.MethodPatch, "/leases/42/status", bearer(t, 1, "LEDELSE"), `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decodeBody(t, rec)["lease"].(map[string]any)["status"])

	rec = do(t, router, http.MethodPatch, "/leases/42/status", bearer(t, 1, "LEDELSE"), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaseHandler_GetAndList(t *testing.T) {
	svc := new(MockLeaseService)
	router := newTestRouter(svc)

	svc.On("GetLease", mock.Anything, int64(42)).Return(sampleLease(42), nil)
	svc.On("GetLease", mock.Anything, int64(99)).Return(nil, domain.NewNotFoundError("lease.get", "lease 99 not found"))
	svc.On("ListLeases", mock.Anything, repository.LeaseFilter{Status: domain.LeaseStatusActive, UnboundOnly: true}).
		Return(nil, nil)

	rec := do(t, router, http.MethodGet, "/leases/42", bearer(t, 1, "FORRET"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3000", decodeBody(t, rec)["monthly_price"])

	rec = do(t, router, http.MethodGet, "/leases/99", bearer(t, 1, "FORRET"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/leases?status=ACTIVE&unallocated=true", bearer(t, 1, "SKADE"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/leases?unallocated=maybe", bearer(t, 1, "SKADE"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

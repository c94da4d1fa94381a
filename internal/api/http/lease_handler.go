package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
	"leasing-backoffice/internal/security"
	"leasing-backoffice/internal/service"
)

type LeaseHandler struct {
	leaseSvc service.LeaseService
}

func NewLeaseHandler(leaseSvc service.LeaseService) *LeaseHandler {
	return &LeaseHandler{leaseSvc: leaseSvc}
}

// ListLeases handles GET /leases?status=ACTIVE&unallocated=true
func (h *LeaseHandler) ListLeases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.LeaseFilter{Status: domain.LeaseStatus(q.Get("status"))}
	if v := q.Get("unallocated"); v != "" {
		unbound, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unallocated must be true or false")
			return
		}
		filter.UnboundOnly = unbound
	}

	leases, err := h.leaseSvc.ListLeases(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if leases == nil {
		leases = []domain.Lease{}
	}
	writeJSON(w, http.StatusOK, leases)
}

// GetLease handles GET /leases/{id}
func (h *LeaseHandler) GetLease(w http.ResponseWriter, r *http.Request) {
	id, ok := leaseID(w, r)
	if !ok {
		return
	}
	lease, err := h.leaseSvc.GetLease(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}

// CreateLease handles POST /leases. A lease without a vehicle is still
// created; the result's outcome says so.
func (h *LeaseHandler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLeaseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		in.CreatedBy = claims.UserID()
	}

	result, err := h.leaseSvc.CreateLease(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetLeaseStatus handles PATCH /leases/{id}/status
func (h *LeaseHandler) SetLeaseStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := leaseID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}

	result, err := h.leaseSvc.SetLeaseStatus(r.Context(), id, domain.LeaseStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// EndLease handles POST /leases/{id}/end
func (h *LeaseHandler) EndLease(w http.ResponseWriter, r *http.Request) {
	id, ok := leaseID(w, r)
	if !ok {
		return
	}
	result, err := h.leaseSvc.EndLease(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func leaseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid lease id")
		return 0, false
	}
	return id, true
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "lease_service"})
}

// RegisterLeaseRoutes registers the lease API and /health on router.
func RegisterLeaseRoutes(router *mux.Router, leaseSvc service.LeaseService) {
	h := NewLeaseHandler(leaseSvc)
	router.HandleFunc("/health", health).Methods("GET")
	router.HandleFunc("/leases", h.ListLeases).Methods("GET")
	router.HandleFunc("/leases", h.CreateLease).Methods("POST")
	router.HandleFunc("/leases/{id:[0-9]+}", h.GetLease).Methods("GET")
	router.HandleFunc("/leases/{id:[0-9]+}/status", h.SetLeaseStatus).Methods("PATCH")
	router.HandleFunc("/leases/{id:[0-9]+}/end", h.EndLease).Methods("POST")
}

// NewRouter builds the full HTTP surface. metrics may be nil.
func NewRouter(leaseSvc service.LeaseService, tm security.TokenManager, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.Use(NewAuthMiddleware(tm).Middleware)
	RegisterLeaseRoutes(router, leaseSvc)
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}
	return router
}

package grpc

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"leasing-backoffice/internal/collaborator"
	"leasing-backoffice/internal/logger"
)

const (
	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 3 * time.Second

	// OverallService is the empty service name health clients query by default.
	OverallService = ""
)

// HealthChecker keeps a grpc health server in sync with collaborator
// reachability. Each collaborator is reported under its client name
// ("fleet", "damage", "credit"); the overall status is SERVING only while
// every collaborator answers its /health probe.
type HealthChecker struct {
	server   *health.Server
	probers  []collaborator.Prober
	interval time.Duration
	timeout  time.Duration

	mu   sync.Mutex
	last map[string]error
}

func NewHealthChecker(interval, timeout time.Duration, probers ...collaborator.Prober) *HealthChecker {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	h := &HealthChecker{
		server:   health.NewServer(),
		probers:  probers,
		interval: interval,
		timeout:  timeout,
		last:     make(map[string]error),
	}
	// Unknown until the first probe completes.
	h.server.SetServingStatus(OverallService, healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probers {
		h.server.SetServingStatus(p.Name(), healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// Server returns the underlying health server.
func (h *HealthChecker) Server() healthpb.HealthServer {
	return h.server
}

// Register attaches the health service to s.
func (h *HealthChecker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh probes every collaborator once, concurrently, and publishes the
// results.
func (h *HealthChecker) Refresh(ctx context.Context) {
	results := make([]error, len(h.probers))
	var wg sync.WaitGroup
	for i, p := range h.probers {
		wg.Add(1)
		go func(i int, p collaborator.Prober) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			results[i] = p.Ping(probeCtx)
		}(i, p)
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()

	overall := healthpb.HealthCheckResponse_SERVING
	for i, p := range h.probers {
		err := results[i]
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		prev, seen := h.last[p.Name()]
		if !seen || (prev == nil) != (err == nil) {
			if err != nil {
				logger.Warn("Collaborator unreachable", "collaborator", p.Name(), "error", err)
			} else {
				logger.Info("Collaborator reachable", "collaborator", p.Name())
			}
		}
		h.last[p.Name()] = err
		h.server.SetServingStatus(p.Name(), status)
	}
	h.server.SetServingStatus(OverallService, overall)
}

// Run refreshes immediately and then on every tick until ctx is done, at
// which point all services are reported NOT_SERVING.
func (h *HealthChecker) Run(ctx context.Context) {
	h.Refresh(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

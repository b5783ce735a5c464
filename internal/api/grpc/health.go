package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"venue-approval-backend/internal/logger"
)

// ServiceName is the name reported to health checks for the approval API.
const ServiceName = "venue.approval.v1"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps a health server in step with store reachability.
type HealthReporter struct {
	server   *health.Server
	store    Pinger
	interval time.Duration
	serving  bool
}

func NewHealthReporter(store Pinger, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthReporter{
		server:   health.NewServer(),
		store:    store,
		interval: interval,
	}
}

// Server returns the grpc_health_v1 implementation to register.
func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}

// Check pings the store once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(pingCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if h.serving {
			logger.Warn("Store unreachable, reporting NOT_SERVING", "error", err)
		}
	} else if !h.serving {
		logger.Info("Store reachable, reporting SERVING")
	}
	h.serving = status == healthpb.HealthCheckResponse_SERVING

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks the store every interval until ctx is done, then marks the
// service as shutting down.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

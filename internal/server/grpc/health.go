package grpcserver

import (
	"context"
	"sync/atomic"

	"github.com/rzbill/blinkhub/internal/runtime"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported alongside the empty
// (whole server) name.
const ServiceName = "blinkhub"

// healthSvc answers grpc.health.v1 checks from the runtime's store check
// instead of a static status map.
type healthSvc struct {
	healthpb.UnimplementedHealthServer
	rt       *runtime.Runtime
	stopping atomic.Bool
}

func newHealthSvc(rt *runtime.Runtime) *healthSvc { return &healthSvc{rt: rt} }

func (h *healthSvc) shutdown() { h.stopping.Store(true) }

func (h *healthSvc) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if h.stopping.Load() {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	if err := h.rt.CheckHealth(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

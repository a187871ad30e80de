package grpc

import (
	"context"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// probe pings the store and publishes the result as the overall health
// status ("" service name).
func (s *GRPCServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn(ctx, "store ping failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
}

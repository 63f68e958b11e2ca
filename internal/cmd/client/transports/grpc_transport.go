package transports

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DialFunc opens a client connection to the gRPC endpoint.
type DialFunc func(ctx context.Context) (*grpc.ClientConn, error)

// GrpcTransport implements HealthTransport over grpc.health.v1.
type GrpcTransport struct {
	dial DialFunc
}

func NewGrpcTransport(dial DialFunc) *GrpcTransport { return &GrpcTransport{dial: dial} }

func (t *GrpcTransport) Check(ctx context.Context, service string) (string, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", err
	}
	return res.GetStatus().String(), nil
}

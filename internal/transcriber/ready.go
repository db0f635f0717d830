package transcriber

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ReadinessProbe checks a gRPC-reachable backend's standard health-check
// service, usable by a doctor-style diagnostic command. It uses the
// generated grpc_health_v1 client rather than hand-rolled
// connectivity-state polling.
type ReadinessProbe struct {
	target string
}

// NewReadinessProbe constructs a probe for the given gRPC target
// (host:port).
func NewReadinessProbe(target string) *ReadinessProbe {
	return &ReadinessProbe{target: target}
}

// Ready dials the target and queries its health-check service, returning
// an error unless the reported status is SERVING.
func (p *ReadinessProbe) Ready(ctx context.Context) error {
	conn, err := grpc.NewClient(p.target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial transcription backend %s: %w", p.target, err)
	}
	defer conn.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(checkCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check %s: %w", p.target, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("transcription backend %s not serving: %s", p.target, resp.GetStatus())
	}
	return nil
}

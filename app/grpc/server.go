package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-payment-intake/app/service"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Server answers the standard gRPC health protocol from storage reachability.
type Server struct {
	healthpb.UnimplementedHealthServer
	paymentService pinger
	serviceName    string
}

// NewServer answers Check for the empty whole-server name and for serviceName.
func NewServer(paymentService *service.PaymentService, serviceName string) *Server {
	return &Server{paymentService: paymentService, serviceName: serviceName}
}

func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != s.serviceName {
		return nil, status.Error(codes.NotFound, "unknown service")
	}

	if err := s.paymentService.Ping(ctx); err != nil {
		loggerWithContext(ctx).WithError(err).Warn("Storage ping failed")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}

	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

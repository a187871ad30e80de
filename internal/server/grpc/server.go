// Package grpc runs the operational gRPC endpoint: the standard health
// service, backed by database pings, plus server reflection.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/nownpp/data-hub-entry/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const defaultProbeInterval = 15 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	store         Pinger
	health        *health.Server
	probeInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, store Pinger) (*GRPCServer, error) {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		store:         store,
		health:        health.NewServer(),
		probeInterval: defaultProbeInterval,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.probe(ctx)

	go func() {
		ticker := time.NewTicker(s.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

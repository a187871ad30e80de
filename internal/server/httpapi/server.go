// Package httpapi exposes the collector, submission and admin operations as
// a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/services"
)

const (
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the API dispatches to.
type Dependencies struct {
	Auth        *services.AuthService
	Data        *services.CollectorDataService
	Submissions *services.SubmissionService
	Admin       *services.AdminService
	Admins      services.AdminVerifier
	Health      Pinger
	Metrics     *metrics.Metrics
}

type Server struct {
	address     string
	router      *gin.Engine
	auth        *services.AuthService
	data        *services.CollectorDataService
	submissions *services.SubmissionService
	admin       *services.AdminService
	admins      services.AdminVerifier
	health      Pinger
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewServer(address string, d Dependencies, l logging.Logger) (*Server, error) {
	requestID, err := requestIDMiddleware()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:     address,
		router:      gin.New(),
		auth:        d.Auth,
		data:        d.Data,
		submissions: d.Submissions,
		admin:       d.Admin,
		admins:      d.Admins,
		health:      d.Health,
		metrics:     d.Metrics,
		logger:      l.With("module", "http_server"),
	}

	s.router.Use(gin.Recovery(), corsMiddleware(), requestID, s.accessLogMiddleware())
	s.routes()

	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

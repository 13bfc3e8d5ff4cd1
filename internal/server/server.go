package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/grpcapi"
	"github.com/xtding233/gacha-sim/internal/handler"
	"github.com/xtding233/gacha-sim/internal/metrics"
	"github.com/xtding233/gacha-sim/internal/stats"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP API.
func NewRouter(svc stats.Service, corsOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(corsOrigin))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Handle("/metrics", promhttp.Handler())

	statsRoutes := func(r chi.Router) {
		r.Get("/", handler.HandleGetStats(svc))
		r.Post("/", handler.HandleRecordStats(svc))
	}
	r.Route("/api/stats", statsRoutes)
	r.Route("/stats", statsRoutes)

	return r
}

// Server runs the HTTP API and, when a gRPC port is set, the gRPC mirror.
type Server struct {
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcAddr   string
}

// New wires both listeners around svc.
func New(cfg *config.Server, svc stats.Service) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(svc, cfg.CORSOrigin),
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
		},
	}
	if cfg.GRPCPort > 0 {
		s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(unaryLogging))
		grpcapi.Register(s.grpcServer, svc)
		s.grpcAddr = fmt.Sprintf(":%d", cfg.GRPCPort)
	}
	return s
}

// Run serves until ctx is cancelled or a listener fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", s.grpcAddr)
		if err != nil {
			_ = s.httpServer.Close()
			return fmt.Errorf("listen grpc %s: %w", s.grpcAddr, err)
		}
		go func() {
			slog.Info("gRPC server listening", "addr", s.grpcAddr)
			if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return runErr
}

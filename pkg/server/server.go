package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/jackc/pgx/v5/pgxpool"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openstats/tablebuilder/pkg/api"
	"github.com/openstats/tablebuilder/pkg/datablock"
	"github.com/openstats/tablebuilder/pkg/observability"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/postgres"
	"github.com/openstats/tablebuilder/pkg/redis"
	"github.com/openstats/tablebuilder/pkg/tablebuilder"
)

// Server represents the main application server
type Server struct {
	log    logrus.FieldLogger
	config *Config

	pool  *pgxpool.Pool
	redis *r.Client

	apiService api.Service

	pprofServer  *http.Server
	healthServer *http.Server
}

// NewServer creates a new server instance and wires the query services
func NewServer(ctx context.Context, log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, log, config.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	redisClient, err := redis.New(ctx, config.Redis)
	if err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	factStore := observation.NewStore(log, pool)
	selector := observation.NewSelector(log, factStore)
	tableService := tablebuilder.NewService(log, factStore, selector)

	blockStore := datablock.NewStore(log, pool)
	blockService := datablock.NewService(log, blockStore, tableService, redisClient, config.Redis.PrefixKey("datablock")+"/")

	s := &Server{
		config: config,
		log:    log,
		pool:   pool,
		redis:  redisClient,
	}

	if config.API != nil {
		s.apiService = api.NewService(config.API, tableService, blockService, log)
	}

	return s, nil
}

// Start starts the server and all its components
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Start metrics server
	g.Go(func() error {
		defer func() {
			if recovered := recover(); recovered != nil {
				s.log.WithField("panic", recovered).Error("Panic in metrics server goroutine")
			}
		}()
		observability.StartMetricsServer(s.config.MetricsAddr)
		<-ctx.Done()

		return nil
	})

	// Start API server if configured
	if s.apiService != nil {
		g.Go(func() error {
			if err := s.apiService.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	// Start pprof server if configured
	if s.config.PProfAddr != nil {
		g.Go(func() error {
			if err := s.startPProf(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	// Start health check server if configured
	if s.config.HealthCheckAddr != nil {
		g.Go(func() error {
			if err := s.startHealthCheck(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		// Use a fresh context for cleanup since the current one is canceled
		cleanupCtx := context.Background()

		return s.stop(cleanupCtx)
	})

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	// Create a timeout context for cleanup
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if s.apiService != nil {
		if err := s.apiService.Stop(); err != nil {
			s.log.WithError(err).Error("failed to stop API service")
		}
	}

	// Close Redis connection
	if s.redis != nil {
		s.log.Info("Closing Redis connection...")

		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	// Close the fact store pool
	if s.pool != nil {
		s.log.Info("Closing postgres pool...")
		s.pool.Close()
	}

	// Shutdown HTTP servers
	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown health server")
		}
	}

	// Stop metrics server using observability package
	if err := observability.StopMetricsServer(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop metrics server")
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

func (s *Server) startPProf() error {
	s.log.WithField("addr", *s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              *s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.pprofServer.ListenAndServe()
}

func (s *Server) startHealthCheck() error {
	s.log.WithField("addr", *s.config.HealthCheckAddr).Info("Starting healthcheck server")

	s.healthServer = &http.Server{
		Addr:              *s.config.HealthCheckAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	s.healthServer.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return s.healthServer.ListenAndServe()
}

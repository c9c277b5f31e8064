package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/akuity/devportal/pkg/config"
	xhttp "github.com/akuity/devportal/pkg/http"
	"github.com/akuity/devportal/pkg/logging"
)

// Server is an interface for the developer portal's HTTP server.
type Server interface {
	// Serve starts the server and blocks until ctx is canceled or the server
	// fails.
	Serve(ctx context.Context, l net.Listener) error
}

// RouteRegistrar adds a backend's routes to a router.
type RouteRegistrar interface {
	RegisterRoutes(gin.IRouter)
}

// Options wires the backends served by the Server. A nil backend is not
// mounted.
type Options struct {
	// Kubernetes serves the Kubernetes backend's routes under
	// /api/kubernetes.
	Kubernetes RouteRegistrar
	// ReleaseManager serves the release manager's routes under
	// /api/release-manager.
	ReleaseManager *ReleaseManager
}

type server struct {
	cfg  config.ServerConfig
	opts Options
}

// NewServer returns an implementation of the Server interface.
func NewServer(cfg config.ServerConfig, opts Options) Server {
	return &server{
		cfg:  cfg,
		opts: opts,
	}
}

func (s *server) setupRESTRouter(logger *logging.Logger) *gin.Engine {
	router := xhttp.NewRouter()
	router.Use(requestLogger(logger))
	router.GET("/healthz", s.getHealth)
	router.GET("/version", s.getVersionInfo)
	if s.opts.Kubernetes != nil {
		s.opts.Kubernetes.RegisterRoutes(router.Group("/api/kubernetes"))
	}
	if s.opts.ReleaseManager != nil {
		s.opts.ReleaseManager.RegisterRoutes(router.Group("/api/release-manager"))
	}
	return router
}

// handler assembles the server's routes and middleware.
func (s *server) handler(logger *logging.Logger) http.Handler {
	var handler http.Handler = s.setupRESTRouter(logger)

	// Sometimes a permissive CORS policy is useful during local development.
	if s.cfg.PermissiveCORSPolicyEnabled {
		handler = cors.New(cors.Options{
			AllowCredentials: true,
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
		}).Handler(handler)
	}
	return handler
}

func (s *server) Serve(ctx context.Context, l net.Listener) error {
	logger := logging.LoggerFromContext(ctx)

	srv := &http.Server{
		Handler:           s.handler(logger),
		ReadHeaderTimeout: time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.cfg.TLSConfig != nil {
			errCh <- srv.ServeTLS(
				l,
				s.cfg.TLSConfig.CertPath,
				s.cfg.TLSConfig.KeyPath,
			)
		} else {
			errCh <- srv.Serve(l)
		}
	}()

	logger.Info(
		"Server is listening",
		"tls", s.cfg.TLSConfig != nil,
		"address", l.Addr().String(),
	)

	select {
	case <-ctx.Done():
		logger.Info("Gracefully stopping server...")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.cfg.GracefulShutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLogger attaches a request-scoped logger to every request's context
// and marks API responses as uncacheable.
func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := logger.WithValues(
			"requestID", uuid.NewString(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		reqLogger.Debug("handling request")
		xhttp.SetNoCacheHeaders(c.Writer)
		c.Request = c.Request.WithContext(
			logging.ContextWithLogger(c.Request.Context(), reqLogger),
		)
		c.Next()
	}
}

func (s *server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

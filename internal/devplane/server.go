// Package devplane implements a self-hosted ingestion endpoint for local
// development: it speaks the same /v1/batch wire protocol as a hosted data
// plane and records everything it accepts, so an application pointed at it
// can be inspected without any remote account.
package devplane

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rudderlabs/analytics-go/internal/devplane/store"
)

// NewRouter wires public endpoints and write-key-authenticated APIs.
// Public: /health, /ready
// Authenticated: /v1/batch, /v1/metrics, /v1/events
func NewRouter(cfg Config, st store.Store, logger logrus.FieldLogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the storage dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	authGroup := r.Group("/")
	authGroup.Use(WriteKeyAuth(cfg.WriteKeys()))

	registerBatchRoutes(authGroup, st, logger)
	registerMetricRoutes(authGroup, st)
	registerEventRoutes(authGroup, st)

	return r
}

// Run serves until ctx is canceled, then drains in-flight requests.
func Run(ctx context.Context, cfg Config, st store.Store, logger logrus.FieldLogger) error {
	var handler http.Handler = NewRouter(cfg, st, logger)

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint != "" {
		var err error
		shutdownTracing, err = initTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			return errors.Wrap(err, "init tracing")
		}
		handler = otelhttp.NewHandler(handler, "devplane")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("dev plane listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("failed to shut down tracing")
	}
	return <-errCh
}

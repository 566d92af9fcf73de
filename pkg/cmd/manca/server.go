package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// newRouter exposes the registry on /metrics and a liveness probe on /healthz.
func newRouter(reg *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	return router
}

// metricsServer serves the router in the background until shutdown is called.
type metricsServer struct {
	server *http.Server
	logger zerolog.Logger
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger zerolog.Logger) *metricsServer {
	ms := &metricsServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      newRouter(reg),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}

	go func() {
		logger.Info().Str("address", addr).Msg("Metrics server starting")
		if err := ms.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return ms
}

func (ms *metricsServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ms.server.Shutdown(ctx); err != nil {
		ms.logger.Warn().Err(err).Msg("Metrics server forced to shutdown")
	}
}

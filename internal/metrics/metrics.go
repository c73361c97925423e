// Package metrics exposes Prometheus counters for pin submissions and metadata lookups.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinsaver_submissions_total",
			Help: "Total number of pin submissions by outcome",
		},
		[]string{"outcome"},
	)

	metadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinsaver_metadata_lookups_total",
			Help: "Total number of DOM metadata lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveSubmission counts one submission. An empty outcome means success.
func ObserveSubmission(outcome string) {
	if outcome == "" {
		outcome = "success"
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMetadataLookup counts one metadata lookup: "found", "missing" or "failed".
func ObserveMetadataLookup(result string) {
	metadataLookupsTotal.WithLabelValues(result).Inc()
}

// Serve runs a /metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger logrus.FieldLogger) {
	log := logger.WithFields(logrus.Fields{"component": "metrics", "addr": addr})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics server")
		}
	}()

	log.Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server stopped")
	}
}

// Package metrics counts backend calls, token acquisitions and session
// invalidations, and can expose them for Prometheus scraping.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/splitfair/internal/client/client"
	"github.com/dmitrijs2005/splitfair/internal/logging"
)

type Metrics struct {
	Requests          *prometheus.CounterVec
	TokenAcquisitions *prometheus.CounterVec
	Invalidations     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfair_client_requests_total",
				Help: "Backend requests by method and response status",
			},
			[]string{"method", "status"},
		),
		TokenAcquisitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfair_client_token_acquisitions_total",
				Help: "Network token acquisitions by source",
			},
			[]string{"source"},
		),
		Invalidations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitfair_client_invalidations_total",
				Help: "Session state cleared after a rejected request",
			},
			[]string{"kind"},
		),
	}
}

// PostHook records every answered request.
func (m *Metrics) PostHook() client.PostHook {
	return func(_ context.Context, req *client.Request, resp *client.Response) error {
		m.Requests.WithLabelValues(req.Method, strconv.Itoa(resp.Status)).Inc()
		switch resp.Status {
		case http.StatusForbidden:
			m.Invalidations.WithLabelValues("token").Inc()
		case http.StatusUnauthorized:
			m.Invalidations.WithLabelValues("identity").Inc()
		}
		return nil
	}
}

// OnAcquire matches csrf.Options.OnAcquire.
func (m *Metrics) OnAcquire(source string) {
	m.TokenAcquisitions.WithLabelValues(source).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

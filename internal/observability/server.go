// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

// Package observability provides HTTP endpoints for metrics and health
// checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/userward/userward/internal/auth"
)

// ReadinessChecker returns whether the service is ready to accept work.
type ReadinessChecker func() bool

// Metrics contains the Prometheus counters for authentication
// operations. It satisfies auth.Metrics so it can be attached to the
// service directly.
type Metrics struct {
	RegistrationsTotal     prometheus.Counter
	LoginsTotal            *prometheus.CounterVec
	SessionsCreatedTotal   prometheus.Counter
	SessionsDestroyedTotal prometheus.Counter
	ResetsRequestedTotal   prometheus.Counter
	ResetsCompletedTotal   prometheus.Counter
}

// NewMetrics creates and registers the Userward metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userward_registrations_total",
			Help: "Total number of successful user registrations",
		}),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userward_logins_total",
				Help: "Total number of login validations by result",
			},
			[]string{"result"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userward_sessions_created_total",
			Help: "Total number of sessions issued",
		}),
		SessionsDestroyedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userward_sessions_destroyed_total",
			Help: "Total number of sessions destroyed",
		}),
		ResetsRequestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userward_password_resets_requested_total",
			Help: "Total number of password reset tokens issued",
		}),
		ResetsCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userward_password_resets_completed_total",
			Help: "Total number of password resets completed",
		}),
	}

	reg.MustRegister(
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.SessionsCreatedTotal,
		m.SessionsDestroyedTotal,
		m.ResetsRequestedTotal,
		m.ResetsCompletedTotal,
	)

	return m
}

// UserRegistered counts a successful registration.
func (m *Metrics) UserRegistered() { m.RegistrationsTotal.Inc() }

// LoginChecked counts a login validation by result.
func (m *Metrics) LoginChecked(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// SessionCreated counts an issued session.
func (m *Metrics) SessionCreated() { m.SessionsCreatedTotal.Inc() }

// SessionDestroyed counts a destroyed session.
func (m *Metrics) SessionDestroyed() { m.SessionsDestroyedTotal.Inc() }

// ResetRequested counts an issued reset token.
func (m *Metrics) ResetRequested() { m.ResetsRequestedTotal.Inc() }

// PasswordReset counts a completed password reset.
func (m *Metrics) PasswordReset() { m.ResetsCompletedTotal.Inc() }

// Compile-time interface check.
var _ auth.Metrics = (*Metrics)(nil)

// Server provides HTTP endpoints for observability (metrics and health
// probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (":9100" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Private registry to avoid polluting the global one
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := NewMetrics(registry)

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		isReady:  readinessChecker,
	}
}

// Metrics returns the counters for recording authentication events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints. It returns an error
// channel that receives any error from the HTTP server after it starts;
// the channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	// Kubernetes-style health probes
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		// Use local httpSrv to avoid race with subsequent Start() calls
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Restore running state so the server can be stopped again
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty if not
// running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleLiveness returns 200 if the process is running.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 if the service is ready, 503 otherwise.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // health check write error is acceptable, client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("not ready\n"))
}

// Package metrics provides Prometheus instrumentation for the wager engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MatchesCreatedTotal counts matches created.
	MatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_matches_created_total",
		Help: "Total number of matches created",
	})

	// DepositsTotal counts successful escrow deposits.
	DepositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_deposits_total",
		Help: "Total number of escrow deposits",
	})

	// SettlementsTotal counts settlements, partitioned by outcome.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_settlements_total",
		Help: "Total number of match settlements",
	}, []string{"outcome"})

	// ClaimsTotal counts successful winner payout claims.
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_claims_total",
		Help: "Total number of payout claims",
	})

	// RefundsTotal counts successful escrow refunds.
	RefundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_refunds_total",
		Help: "Total number of escrow refunds",
	})

	// EscrowVolumeTotal tracks cumulative stake volume in base units.
	EscrowVolumeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_escrow_volume_base_units_total",
		Help: "Cumulative escrowed stake volume in base units",
	})

	// FeesCollectedTotal tracks cumulative platform fees in base units.
	FeesCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_fees_collected_base_units_total",
		Help: "Cumulative platform fees transferred to treasury",
	})

	// LiveMatches tracks the number of Pending and Active matches.
	LiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wager_live_matches",
		Help: "Number of matches in Pending or Active status",
	})

	// WebSocketClients tracks connected WebSocket event subscribers.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wager_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wager_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// RiskRejectionsTotal counts matches rejected by the exposure limiter.
	RiskRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_risk_rejections_total",
		Help: "Matches rejected by the exposure limiter",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Package metrics provides Prometheus instrumentation for the guardian.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mode is 0 in NORMAL mode, 1 in BLOCK mode.
	Mode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_mode",
		Help: "Current enforcement mode (0=normal, 1=block)",
	})

	// DailyPnL is the last-computed daily P&L in account-currency units.
	DailyPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_daily_pnl",
		Help: "Daily P&L (realized + unrealized) since last reset",
	})

	// OpenPositions is the size of the known-position set after each poll.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_open_positions",
		Help: "Known open positions after the last poll",
	})

	// PositionsClosed tracks close-all successes since last reset.
	PositionsClosed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_positions_closed_today",
		Help: "Positions closed by the threshold trigger since last reset",
	})

	// SneakyBlocked tracks block-mode closes since last reset.
	SneakyBlocked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_sneaky_positions_blocked",
		Help: "Positions opened during block mode and closed since last reset",
	})

	// PollCycles counts enforcement loop iterations by mode.
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_poll_cycles_total",
		Help: "Enforcement loop iterations",
	}, []string{"mode"})

	// CloseFailures counts failed close attempts by reason.
	CloseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_close_failures_total",
		Help: "Failed close-order attempts",
	}, []string{"reason"})

	// GatewayErrors counts gateway read failures.
	GatewayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_gateway_errors_total",
		Help: "Gateway calls that failed",
	})

	// Resets counts reset events by kind (scheduled, forced).
	Resets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_resets_total",
		Help: "Daily reset events",
	}, []string{"kind"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

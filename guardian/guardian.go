// Package guardian implements the enforcement core: it watches daily P&L
// against a configured loss ceiling and, on breach, closes every open
// position and locks out trading until the next scheduled daily reset.
package guardian

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/clock"
	"github.com/rustyeddy/sentinel/config"
	"github.com/rustyeddy/sentinel/id"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/metrics"
)

// Guardian runs the enforcement loop. All state mutation happens on the
// single goroutine executing Run; external callers interact through the
// command channel and published snapshots only.
type Guardian struct {
	gw  broker.Gateway
	clk clock.Clock
	jnl journal.Journal
	cfg config.GuardianConfig
	gwc config.GatewayConfig

	state    State
	commands chan Command
	snap     atomic.Pointer[Snapshot]
}

// New constructs a guardian in NORMAL mode. The last-reset anchor is seeded
// from the most recent scheduled boundary, so realized P&L from earlier in
// the current trading day is counted even after a restart.
func New(gw broker.Gateway, clk clock.Clock, jnl journal.Journal, cfg config.GuardianConfig, gwc config.GatewayConfig) *Guardian {
	now := clk.Now()
	g := &Guardian{
		gw:       gw,
		clk:      clk,
		jnl:      jnl,
		cfg:      cfg,
		gwc:      gwc,
		commands: make(chan Command, 16),
		state: State{
			Mode:      Normal,
			Known:     make(map[int64]struct{}),
			LastReset: clock.LastBoundary(now, cfg.ResetHour, cfg.ResetMinute),
		},
	}
	g.publish(now)
	return g
}

// Commands returns the channel manual resets, emergency closes and stop
// requests are injected on. It is the only write path into the loop.
func (g *Guardian) Commands() chan<- Command {
	return g.commands
}

// Snapshot returns the most recently published state snapshot.
func (g *Guardian) Snapshot() Snapshot {
	return *g.snap.Load()
}

// Healthy reports whether the guardian can currently enforce: the gateway
// is connected and the loop has published a snapshot within two normal
// poll intervals.
func (g *Guardian) Healthy() bool {
	if !g.gw.IsConnected() {
		return false
	}
	snap := g.snap.Load()
	return g.clk.Now().Sub(snap.Time) <= 2*g.cfg.NormalInterval.Std()+time.Second
}

func (g *Guardian) publish(now time.Time) {
	snap := g.state.snapshot(now)
	g.snap.Store(&snap)

	if g.state.Mode == Block {
		metrics.Mode.Set(1)
	} else {
		metrics.Mode.Set(0)
	}
	metrics.DailyPnL.Set(g.state.DailyPnL)
	metrics.OpenPositions.Set(float64(len(g.state.Known)))
	metrics.PositionsClosed.Set(float64(g.state.PositionsClosed))
	metrics.SneakyBlocked.Set(float64(g.state.SneakyBlocked))
}

// logEvent appends to the action log. Journal failures are reported on
// stderr and swallowed; logging must never abort enforcement.
func (g *Guardian) logEvent(action journal.Action, detail string, outcome journal.Outcome) {
	e := journal.Event{
		ID:        id.New(),
		Time:      g.clk.Now(),
		Action:    action,
		Detail:    detail,
		PnL:       g.state.DailyPnL,
		Positions: len(g.state.Known),
		Outcome:   outcome,
	}
	if err := g.jnl.Record(e); err != nil {
		log.Printf("journal write failed: %v (event %s %s)", err, action, detail)
	}

	marker := "+"
	if g.state.Mode == Block {
		marker = "!"
	}
	log.Printf("%s %s: %s [%s]", marker, action, detail, outcome)
}

func (g *Guardian) logEventf(action journal.Action, outcome journal.Outcome, format string, args ...any) {
	g.logEvent(action, fmt.Sprintf(format, args...), outcome)
}

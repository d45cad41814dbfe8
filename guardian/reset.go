package guardian

import (
	"time"

	"github.com/rustyeddy/sentinel/clock"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/metrics"
)

// maybeReset performs the scheduled daily reset when the boundary after the
// last reset has passed. Called once per poll cycle regardless of mode, so a
// reset can interrupt block mode mid-enforcement. Returns whether a reset
// occurred.
func (g *Guardian) maybeReset(now time.Time) bool {
	next := clock.NextBoundary(g.state.LastReset, g.cfg.ResetHour, g.cfg.ResetMinute)
	if now.Before(next) {
		return false
	}

	g.applyReset(clock.LastBoundary(now, g.cfg.ResetHour, g.cfg.ResetMinute))
	metrics.Resets.WithLabelValues("scheduled").Inc()
	g.logEvent(journal.ActionDailyReset, "new trading day started", journal.OutcomeInfo)
	return true
}

// forceReset performs the identical transition unconditionally, bypassing
// the boundary check. Operator override after investigating a false trigger;
// the anchor becomes now rather than a boundary.
func (g *Guardian) forceReset(now time.Time) {
	g.applyReset(now)
	metrics.Resets.WithLabelValues("forced").Inc()
	g.logEvent(journal.ActionForceReset, "manual reset - new trading day", journal.OutcomeInfo)
}

// applyReset reinitializes the aggregate atomically: NORMAL mode, counters
// zeroed, known set cleared so the next poll treats everything currently
// open as the new baseline (nothing is retroactively flagged).
func (g *Guardian) applyReset(anchor time.Time) {
	g.state.Mode = Normal
	g.state.BlockTriggeredAt = time.Time{}
	g.state.DailyPnL = 0
	g.state.LastReset = anchor
	g.state.PositionsClosed = 0
	g.state.SneakyBlocked = 0
	g.state.Known = make(map[int64]struct{})
}

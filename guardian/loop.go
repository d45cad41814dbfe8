package guardian

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/metrics"
)

// Run executes the enforcement loop until ctx is canceled. Each iteration
// runs the strict sequence reset-check, poll, mode action, then sleeps for
// the interval of the current mode. Cadence is "at least interval apart",
// not "exactly every interval": a slow gateway call stretches the cycle.
//
// A transient gateway failure skips the cycle and triggers a reconnect with
// backoff; only ctx cancellation ends the loop. On exit the journal is
// flushed via the shutdown event and final counters are reported.
func (g *Guardian) Run(ctx context.Context) error {
	g.logEventf(journal.ActionStart, journal.OutcomeInfo,
		"guardian active (limit: %.2f, reset %02d:%02d)",
		g.cfg.MaxLoss, g.cfg.ResetHour, g.cfg.ResetMinute)

	if err := g.ensureConnected(ctx); err != nil {
		g.logEventf(journal.ActionConnectFailed, journal.OutcomeError, "%v", err)
		return err
	}

	for {
		if err := g.step(ctx); err != nil {
			metrics.GatewayErrors.Inc()
			g.logEventf(journal.ActionError, journal.OutcomeError, "cycle skipped: %v", err)
			if errors.Is(err, broker.ErrUnavailable) {
				if rerr := g.ensureConnected(ctx); rerr != nil && ctx.Err() != nil {
					break
				}
			}
		}

		interval := g.cfg.NormalInterval.Std()
		if g.state.Mode == Block {
			interval = g.cfg.BlockInterval.Std()
		}

		if !g.sleep(ctx, interval) {
			break
		}
	}

	g.logEventf(journal.ActionShutdown, journal.OutcomeInfo,
		"closed today: %d, sneaky blocked: %d",
		g.state.PositionsClosed, g.state.SneakyBlocked)
	return ctx.Err()
}

// sleep waits out the poll interval while servicing commands. Returns false
// once ctx is canceled.
func (g *Guardian) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case cmd := <-g.commands:
			g.handleCommand(ctx, cmd)
		case <-timer.C:
			return true
		}
	}
}

func (g *Guardian) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CmdForceReset:
		g.forceReset(g.clk.Now())
	case CmdCloseAll:
		success, failed := g.closeAllPositions(ctx)
		g.logEventf(journal.ActionCloseAll, journal.OutcomeInfo,
			"manual close-all: %d closed, %d failed", success, failed)
	}

	g.publish(g.clk.Now())
	if cmd.Done != nil {
		cmd.Done <- g.Snapshot()
	}
}

// ensureConnected reconnects with delay-and-backoff until the gateway is up,
// the attempt budget is exhausted, or ctx is canceled. Repeated calls are
// idempotent; an already-connected gateway returns immediately.
func (g *Guardian) ensureConnected(ctx context.Context) error {
	if g.gw.IsConnected() {
		return nil
	}

	g.logEvent(journal.ActionConnectionLost, "attempting reconnect", journal.OutcomeInfo)

	delay := g.gwc.ReconnectDelay.Std()
	for attempt := 1; attempt <= g.gwc.MaxReconnectTries; attempt++ {
		if err := g.gw.Connect(ctx); err == nil {
			g.logEventf(journal.ActionConnected, journal.OutcomeSuccess,
				"gateway connected (attempt %d)", attempt)
			return nil
		} else {
			g.logEventf(journal.ActionConnectFailed, journal.OutcomeError,
				"attempt %d/%d: %v", attempt, g.gwc.MaxReconnectTries, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * g.gwc.ReconnectBackoff)
	}

	return broker.ErrUnavailable
}

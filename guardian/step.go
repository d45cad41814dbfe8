package guardian

import (
	"context"

	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/metrics"
)

// stepNormal is one NORMAL-mode poll: absorb newly opened positions into the
// known set (legitimate trader activity, not closed), recompute P&L, and
// trip the block when the ceiling is hit. P&L equal to the threshold trips,
// not just below it.
func (g *Guardian) stepNormal(ctx context.Context) error {
	live, err := g.gw.ListOpenPositions(ctx, g.cfg.SymbolFilter)
	if err != nil {
		return err
	}
	g.diffNewPositions(live)

	pnl, err := g.computeDailyPnL(ctx)
	if err != nil {
		return err
	}

	if pnl > g.cfg.MaxLoss {
		return nil
	}

	g.logEventf(journal.ActionThresholdHit, journal.OutcomeInfo,
		"daily P&L %.2f <= limit %.2f", pnl, g.cfg.MaxLoss)

	success, _ := g.closeAllPositions(ctx)
	g.state.PositionsClosed = success

	g.state.Mode = Block
	g.state.BlockTriggeredAt = g.clk.Now()

	g.logEventf(journal.ActionBlockMode, journal.OutcomeInfo,
		"all trading blocked until %02d:%02d", g.cfg.ResetHour, g.cfg.ResetMinute)
	return nil
}

// stepBlock is one BLOCK-mode poll: any position opened since the block
// began is sneaky and is closed immediately. Positions that survived the
// triggering close-all are already known and are not re-attempted here.
func (g *Guardian) stepBlock(ctx context.Context) error {
	live, err := g.gw.ListOpenPositions(ctx, g.cfg.SymbolFilter)
	if err != nil {
		return err
	}

	for _, pos := range g.diffNewPositions(live) {
		g.logEventf(journal.ActionSneakyBlocked, journal.OutcomeInfo,
			"closing sneaky position: %d | %s %s", pos.Ticket, pos.Symbol, pos.Side)
		if g.closePosition(ctx, pos) {
			g.state.SneakyBlocked++
		}
	}
	return nil
}

// step runs one full poll cycle: reset check first, then the mode action.
// Gateway failures surface as the returned error; the caller skips the rest
// of the cycle and retries on the next tick.
func (g *Guardian) step(ctx context.Context) error {
	now := g.clk.Now()
	g.maybeReset(now)

	metrics.PollCycles.WithLabelValues(g.state.Mode.String()).Inc()

	var err error
	if g.state.Mode == Normal {
		err = g.stepNormal(ctx)
	} else {
		err = g.stepBlock(ctx)
	}

	g.publish(g.clk.Now())
	return err
}

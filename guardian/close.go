package guardian

import (
	"context"
	"errors"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/market"
	"github.com/rustyeddy/sentinel/metrics"
)

// slippageDeviation is the allowed slippage on close orders, in points.
const slippageDeviation = 50

// closePosition submits an opposite-side market close for pos. A long
// position closes at the bid, a short at the ask. Failures are logged and
// reported to the caller; they never abort the loop.
func (g *Guardian) closePosition(ctx context.Context, pos market.Position) bool {
	tick, err := g.gw.CurrentTick(ctx, pos.Symbol)
	if err != nil {
		g.logEventf(journal.ActionCloseFailed, journal.OutcomeError,
			"ticket %d: no tick for %s: %v", pos.Ticket, pos.Symbol, err)
		if errors.Is(err, broker.ErrNoPriceData) {
			metricCloseFailure("no_price")
		} else {
			metricCloseFailure("gateway")
		}
		return false
	}

	price := tick.Bid
	if pos.Side == market.Short {
		price = tick.Ask
	}

	req := broker.CloseOrderRequest{
		Ticket:    pos.Ticket,
		Symbol:    pos.Symbol,
		Volume:    pos.Volume,
		Side:      pos.Side.Opposite(),
		Price:     price,
		Deviation: slippageDeviation,
		Magic:     broker.CloseMagic,
		Comment:   broker.CloseComment,
	}

	res, err := g.gw.SubmitCloseOrder(ctx, req)
	if err != nil {
		var rej *broker.RejectedError
		if errors.As(err, &rej) {
			g.logEventf(journal.ActionCloseFailed, journal.OutcomeError,
				"ticket %d: %s (code %d)", pos.Ticket, rej.Comment, rej.Code)
			metricCloseFailure("rejected")
		} else {
			g.logEventf(journal.ActionCloseFailed, journal.OutcomeError,
				"ticket %d: %v", pos.Ticket, err)
			metricCloseFailure("gateway")
		}
		return false
	}

	g.logEventf(journal.ActionPositionClosed, journal.OutcomeSuccess,
		"ticket %d: %s %s %.2f @ %.5f (%s)", pos.Ticket, pos.Symbol, pos.Side, pos.Volume, price, res.Comment)
	return true
}

// closeAllPositions submits a close per open position, best effort. It
// returns (successes, failures); failed closes are left open and are NOT
// retried by block mode since their tickets are already known.
func (g *Guardian) closeAllPositions(ctx context.Context) (int, int) {
	positions, err := g.gw.ListOpenPositions(ctx, g.cfg.SymbolFilter)
	if err != nil {
		g.logEventf(journal.ActionCloseAll, journal.OutcomeError, "list positions: %v", err)
		return 0, 0
	}

	var success, failed int
	for _, pos := range positions {
		if g.closePosition(ctx, pos) {
			success++
		} else {
			failed++
		}
	}

	g.logEventf(journal.ActionCloseAll, journal.OutcomeInfo, "closed: %d, failed: %d", success, failed)
	return success, failed
}

func metricCloseFailure(reason string) {
	metrics.CloseFailures.WithLabelValues(reason).Inc()
}

package guardian

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/market"
)

func TestComputeDailyPnLComposition(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	// Realized R = -100 + 40 = -60, including swap and commission.
	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -95, Swap: -2, Commission: -3, Time: baseTime.Add(-time.Hour),
	})
	gw.AddDeal(market.Deal{
		Ticket: 2, Symbol: "EURUSD", Type: market.DealBuy,
		Profit: 41, Swap: 0, Commission: -1, Time: baseTime.Add(-30 * time.Minute),
	})

	// Unrealized U = -25 + 10 = -15.
	gw.OpenPosition(losingPosition(10, -25))
	gw.OpenPosition(market.Position{Ticket: 11, Symbol: "EURUSD", Side: market.Short, Profit: 10})

	pnl, err := g.computeDailyPnL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -75, pnl, 1e-9)
	assert.InDelta(t, -75, g.state.DailyPnL, 1e-9, "computed total is cached on state")
}

func TestComputeDailyPnLExcludesBalanceOps(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	gw.AddDeal(market.Deal{
		Ticket: 1, Type: market.DealBalance,
		Profit: 10000, Time: baseTime.Add(-time.Hour),
	})
	gw.AddDeal(market.Deal{
		Ticket: 2, Symbol: "XAUUSD", Type: market.DealBuy,
		Profit: -50, Time: baseTime.Add(-time.Hour),
	})

	pnl, err := g.computeDailyPnL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -50, pnl, 1e-9, "deposits never mask trading losses")
}

func TestComputeDailyPnLWindowStartsAtLastReset(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	// Settled the previous trading day, before the 04:00 anchor.
	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -500, Time: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
	})
	gw.AddDeal(market.Deal{
		Ticket: 2, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -30, Time: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	pnl, err := g.computeDailyPnL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -30, pnl, 1e-9)
}

func TestComputeDailyPnLSymbolFilter(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)
	g.cfg.SymbolFilter = "XAUUSD"

	gw.OpenPosition(market.Position{Ticket: 1, Symbol: "XAUUSD", Profit: -20})
	gw.OpenPosition(market.Position{Ticket: 2, Symbol: "EURUSD", Profit: -80})

	pnl, err := g.computeDailyPnL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -20, pnl, 1e-9, "filtered symbols do not contribute unrealized P&L")
}

func TestComputeDailyPnLGatewayUnavailable(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	g.state.DailyPnL = -42
	gw.SetUnavailable(true)

	_, err := g.computeDailyPnL(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, broker.ErrUnavailable)
	assert.InDelta(t, -42, g.state.DailyPnL, 1e-9, "cache untouched on failure")
}

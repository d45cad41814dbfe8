package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/market"
)

func connected(t *testing.T) *Gateway {
	t.Helper()

	g := New()
	require.NoError(t, g.Connect(context.Background()))
	return g
}

func TestCallsFailWhenDisconnected(t *testing.T) {
	t.Parallel()

	g := New()
	ctx := context.Background()

	_, err := g.ListOpenPositions(ctx, "")
	assert.ErrorIs(t, err, broker.ErrUnavailable)

	_, err = g.ListClosedDeals(ctx, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, broker.ErrUnavailable)

	_, err = g.CurrentTick(ctx, "XAUUSD")
	assert.ErrorIs(t, err, broker.ErrUnavailable)
}

func TestSymbolFilter(t *testing.T) {
	t.Parallel()

	g := connected(t)
	g.OpenPosition(market.Position{Ticket: 1, Symbol: "XAUUSD"})
	g.OpenPosition(market.Position{Ticket: 2, Symbol: "EURUSD"})

	all, err := g.ListOpenPositions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	gold, err := g.ListOpenPositions(context.Background(), "XAUUSD")
	require.NoError(t, err)
	require.Len(t, gold, 1)
	assert.Equal(t, int64(1), gold[0].Ticket)
}

func TestDealWindow(t *testing.T) {
	t.Parallel()

	g := connected(t)
	base := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	g.AddDeal(market.Deal{Ticket: 1, Time: base.Add(-time.Minute)})
	g.AddDeal(market.Deal{Ticket: 2, Time: base.Add(time.Hour)})

	deals, err := g.ListClosedDeals(context.Background(), base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, int64(2), deals[0].Ticket)
}

func TestSubmitCloseOrderRemovesPositionAndRecordsDeal(t *testing.T) {
	t.Parallel()

	g := connected(t)
	g.OpenPosition(market.Position{Ticket: 7, Symbol: "XAUUSD", Side: market.Long, Profit: -50})

	_, err := g.SubmitCloseOrder(context.Background(), broker.CloseOrderRequest{
		Ticket: 7, Symbol: "XAUUSD", Side: market.Short, Volume: 0.1, Price: 2380.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, g.OpenCount())
	require.Len(t, g.CloseOrders(), 1)

	deals, err := g.ListClosedDeals(context.Background(), time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.InDelta(t, -50, deals[0].Profit, 1e-9)
}

func TestStagedRejection(t *testing.T) {
	t.Parallel()

	g := connected(t)
	g.OpenPosition(market.Position{Ticket: 9, Symbol: "XAUUSD"})
	g.RejectCloses(9, 10019, "no money")

	_, err := g.SubmitCloseOrder(context.Background(), broker.CloseOrderRequest{Ticket: 9})
	require.Error(t, err)

	var rej *broker.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 10019, rej.Code)

	// The position survives a rejected close.
	assert.Equal(t, 1, g.OpenCount())
}

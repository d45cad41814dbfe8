package guardian

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentinel/broker/sim"
	"github.com/rustyeddy/sentinel/clock"
	"github.com/rustyeddy/sentinel/config"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/market"
)

// memJournal collects events in memory for assertions.
type memJournal struct {
	mu     sync.Mutex
	events []journal.Event
}

func (m *memJournal) Record(e journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memJournal) Close() error { return nil }

func (m *memJournal) count(action journal.Action) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

// baseTime is 14:00, well past the 04:00 reset boundary.
var baseTime = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testConfig() config.GuardianConfig {
	return config.GuardianConfig{
		MaxLoss:        -300,
		ResetHour:      4,
		ResetMinute:    0,
		NormalInterval: config.Duration(5 * time.Second),
		BlockInterval:  config.Duration(500 * time.Millisecond),
	}
}

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		ReconnectDelay:    config.Duration(time.Millisecond),
		ReconnectBackoff:  1.5,
		MaxReconnectTries: 3,
	}
}

func newTestGuardian(t *testing.T) (*Guardian, *sim.Gateway, *clock.Fixed, *memJournal) {
	t.Helper()

	gw := sim.New()
	require.NoError(t, gw.Connect(context.Background()))

	clk := clock.NewFixed(baseTime)
	jnl := &memJournal{}
	g := New(gw, clk, jnl, testConfig(), testGatewayConfig())
	return g, gw, clk, jnl
}

func losingPosition(ticket int64, profit market.Cash) market.Position {
	return market.Position{
		Ticket: ticket, Symbol: "XAUUSD", Side: market.Long,
		Volume: 0.10, OpenPrice: 2392, CurrentPrice: 2380,
		Profit: profit, OpenTime: baseTime.Add(-time.Hour),
	}
}

func xauTick() market.Tick {
	return market.Tick{Symbol: "XAUUSD", Bid: 2380.5, Ask: 2380.8, Time: baseTime}
}

func TestNewSeedsLastResetFromBoundary(t *testing.T) {
	t.Parallel()

	g, _, _, _ := newTestGuardian(t)
	want := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	assert.True(t, g.state.LastReset.Equal(want), "got %v", g.state.LastReset)
	assert.Equal(t, Normal, g.state.Mode)
}

func TestThresholdTripsOnEqual(t *testing.T) {
	t.Parallel()

	g, gw, clk, jnl := newTestGuardian(t)

	// Realized loss exactly at the ceiling, no open positions.
	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -300, Time: baseTime.Add(-time.Hour),
	})

	require.NoError(t, g.step(context.Background()))

	assert.Equal(t, Block, g.state.Mode)
	assert.True(t, g.state.BlockTriggeredAt.Equal(clk.Now()))
	assert.Equal(t, 1, jnl.count(journal.ActionThresholdHit))
	assert.Equal(t, 1, jnl.count(journal.ActionBlockMode))
}

func TestThresholdSafeOneUnitAbove(t *testing.T) {
	t.Parallel()

	g, gw, _, jnl := newTestGuardian(t)

	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -299, Time: baseTime.Add(-time.Hour),
	})

	require.NoError(t, g.step(context.Background()))

	assert.Equal(t, Normal, g.state.Mode)
	assert.True(t, g.state.BlockTriggeredAt.IsZero())
	assert.Zero(t, jnl.count(journal.ActionThresholdHit))
}

func TestNormalModeAbsorbsNewPositionsWithoutClosing(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	gw.SetTick(xauTick())
	gw.OpenPosition(losingPosition(42, -10))

	require.NoError(t, g.step(context.Background()))

	assert.Equal(t, Normal, g.state.Mode)
	assert.Contains(t, g.state.Known, int64(42))
	assert.Empty(t, gw.CloseOrders(), "new positions are legitimate in normal mode")
}

// Scenario: realized -250 plus floating -60 breaches a -300 ceiling; every
// open position is closed and the close count is recorded.
func TestBreachClosesAllPositions(t *testing.T) {
	t.Parallel()

	g, gw, _, jnl := newTestGuardian(t)

	gw.SetTick(xauTick())
	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealBuy,
		Profit: -250, Time: baseTime.Add(-2 * time.Hour),
	})
	gw.OpenPosition(losingPosition(101, -40))
	gw.OpenPosition(losingPosition(102, -20))

	require.NoError(t, g.step(context.Background()))

	assert.Equal(t, Block, g.state.Mode)
	assert.InDelta(t, -310, g.state.DailyPnL, 1e-9)
	assert.Equal(t, 2, g.state.PositionsClosed)
	assert.Equal(t, 0, gw.OpenCount())
	assert.Equal(t, 2, jnl.count(journal.ActionPositionClosed))
}

// Scenario: the reset boundary does not fire at 03:59 and fires at 04:00:01,
// returning the guardian to NORMAL with counters zeroed and the known set
// cleared.
func TestScheduledResetLeavesBlock(t *testing.T) {
	t.Parallel()

	g, _, clk, jnl := newTestGuardian(t)

	g.state.Mode = Block
	g.state.BlockTriggeredAt = baseTime
	g.state.PositionsClosed = 3
	g.state.SneakyBlocked = 2
	g.state.Known = map[int64]struct{}{7: {}}

	clk.Set(time.Date(2026, 3, 11, 3, 59, 0, 0, time.UTC))
	assert.False(t, g.maybeReset(clk.Now()))
	assert.Equal(t, Block, g.state.Mode)

	clk.Set(time.Date(2026, 3, 11, 4, 0, 1, 0, time.UTC))
	assert.True(t, g.maybeReset(clk.Now()))

	assert.Equal(t, Normal, g.state.Mode)
	assert.True(t, g.state.BlockTriggeredAt.IsZero())
	assert.Zero(t, g.state.PositionsClosed)
	assert.Zero(t, g.state.SneakyBlocked)
	assert.Empty(t, g.state.Known)
	assert.True(t, g.state.LastReset.Equal(time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, jnl.count(journal.ActionDailyReset))
}

// Scenario: a position opened during block mode is closed exactly once and
// never re-flagged.
func TestSneakyPositionClosedOnce(t *testing.T) {
	t.Parallel()

	g, gw, _, jnl := newTestGuardian(t)

	gw.SetTick(xauTick())
	gw.OpenPosition(losingPosition(1, -50))
	require.NoError(t, g.step(context.Background())) // absorb A in normal mode

	g.state.Mode = Block
	g.state.BlockTriggeredAt = g.clk.Now()

	gw.OpenPosition(losingPosition(2, 0)) // sneaky
	require.NoError(t, g.step(context.Background()))

	assert.Equal(t, 1, g.state.SneakyBlocked)
	require.Len(t, gw.CloseOrders(), 1)
	assert.Equal(t, int64(2), gw.CloseOrders()[0].Ticket, "only the sneaky position is closed")

	// Next poll: nothing new, no more close attempts.
	require.NoError(t, g.step(context.Background()))
	assert.Len(t, gw.CloseOrders(), 1)
	assert.Equal(t, 1, jnl.count(journal.ActionSneakyBlocked))
}

// Scenario: operator force-reset while blocked at -1000 returns to NORMAL
// immediately and the next compute starts from the new anchor.
func TestForceResetWhileBlocked(t *testing.T) {
	t.Parallel()

	g, gw, clk, jnl := newTestGuardian(t)

	gw.AddDeal(market.Deal{
		Ticket: 1, Symbol: "XAUUSD", Type: market.DealSell,
		Profit: -1000, Time: baseTime.Add(-time.Hour),
	})
	require.NoError(t, g.step(context.Background()))
	require.Equal(t, Block, g.state.Mode)
	require.InDelta(t, -1000, g.state.DailyPnL, 1e-9)

	g.forceReset(clk.Now())

	assert.Equal(t, Normal, g.state.Mode)
	assert.True(t, g.state.LastReset.Equal(clk.Now()))
	assert.Zero(t, g.state.DailyPnL)
	assert.Equal(t, 1, jnl.count(journal.ActionForceReset))

	// The old deal predates the new anchor, so the next compute sees zero.
	clk.Advance(time.Second)
	pnl, err := g.computeDailyPnL(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pnl)
	assert.Equal(t, Normal, g.state.Mode)
}

func TestBlockDoesNotExitOnImprovedPnL(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	g.state.Mode = Block
	g.state.BlockTriggeredAt = baseTime

	// A big win lands while blocked. Block mode never re-evaluates the
	// threshold; only a reset or operator override exits.
	gw.AddDeal(market.Deal{
		Ticket: 9, Symbol: "XAUUSD", Type: market.DealBuy,
		Profit: 5000, Time: baseTime.Add(-time.Minute),
	})

	require.NoError(t, g.step(context.Background()))
	assert.Equal(t, Block, g.state.Mode)
}

func TestGatewayFailureSkipsCycleNotZero(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	g.state.DailyPnL = -120
	gw.SetUnavailable(true)

	err := g.step(context.Background())
	require.Error(t, err)

	// A failed read must never look like a safe zero reading.
	assert.InDelta(t, -120, g.state.DailyPnL, 1e-9)
	assert.Equal(t, Normal, g.state.Mode)
}

func TestSneakyCloseFailsWithoutTick(t *testing.T) {
	t.Parallel()

	g, gw, _, jnl := newTestGuardian(t)

	g.state.Mode = Block
	g.state.BlockTriggeredAt = baseTime

	gw.OpenPosition(losingPosition(5, -10)) // no tick published

	require.NoError(t, g.step(context.Background()))

	assert.Zero(t, g.state.SneakyBlocked)
	assert.Equal(t, 1, jnl.count(journal.ActionCloseFailed))
	// Ticket is known now; the failure is not retried on the next poll.
	require.NoError(t, g.step(context.Background()))
	assert.Equal(t, 1, jnl.count(journal.ActionCloseFailed))
}

func TestSneakyCloseRejectedNotCounted(t *testing.T) {
	t.Parallel()

	g, gw, _, jnl := newTestGuardian(t)

	g.state.Mode = Block
	g.state.BlockTriggeredAt = baseTime

	gw.SetTick(xauTick())
	gw.OpenPosition(losingPosition(6, -10))
	gw.RejectCloses(6, 10019, "no money")

	require.NoError(t, g.step(context.Background()))

	assert.Zero(t, g.state.SneakyBlocked)
	assert.Equal(t, 1, jnl.count(journal.ActionCloseFailed))
	assert.Equal(t, 1, gw.OpenCount(), "rejected close leaves the position open")

	// Already known: block mode does not retry it.
	require.NoError(t, g.step(context.Background()))
	assert.Len(t, gw.CloseOrders(), 1)
}

func TestResetClearsCountersRegardlessOfPriorValues(t *testing.T) {
	t.Parallel()

	g, _, clk, _ := newTestGuardian(t)

	g.state.PositionsClosed = 17
	g.state.SneakyBlocked = 9
	g.state.Mode = Block
	g.state.BlockTriggeredAt = baseTime

	g.forceReset(clk.Now())

	assert.Zero(t, g.state.PositionsClosed)
	assert.Zero(t, g.state.SneakyBlocked)
	assert.Equal(t, Normal, g.state.Mode)
}

func TestSnapshotIsDetachedFromState(t *testing.T) {
	t.Parallel()

	g, gw, _, _ := newTestGuardian(t)

	gw.SetTick(xauTick())
	gw.OpenPosition(losingPosition(11, -5))
	require.NoError(t, g.step(context.Background()))

	snap := g.Snapshot()
	assert.Equal(t, "NORMAL", snap.Mode)
	assert.True(t, snap.TradingAllowed)
	assert.Contains(t, snap.KnownPositions, int64(11))

	// Mutating guardian state afterwards must not leak into the snapshot.
	g.state.Known[99] = struct{}{}
	assert.NotContains(t, snap.KnownPositions, int64(99))
}

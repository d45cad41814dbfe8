package guardian

import (
	"context"
	"fmt"

	"github.com/rustyeddy/sentinel/market"
)

// computeDailyPnL returns realized + unrealized P&L since the last reset.
//
// Realized counts profit+swap+commission over buy/sell deals settled in
// [lastReset, now]; balance operations are excluded. Unrealized sums the
// floating profit of currently open positions (honoring the symbol filter).
//
// A gateway failure propagates as an error: a failed read is never a zero
// reading, the caller must skip the cycle instead of assuming safety.
func (g *Guardian) computeDailyPnL(ctx context.Context) (market.Cash, error) {
	now := g.clk.Now()

	deals, err := g.gw.ListClosedDeals(ctx, g.state.LastReset, now)
	if err != nil {
		return 0, fmt.Errorf("deal history: %w", err)
	}

	var realized market.Cash
	for _, d := range deals {
		if d.IsTrade() {
			realized += d.NetProfit()
		}
	}

	positions, err := g.gw.ListOpenPositions(ctx, g.cfg.SymbolFilter)
	if err != nil {
		return 0, fmt.Errorf("open positions: %w", err)
	}

	var unrealized market.Cash
	for _, p := range positions {
		unrealized += p.Profit
	}

	total := realized + unrealized
	g.state.DailyPnL = total
	return total, nil
}

// Package sim provides a deterministic in-memory Gateway for tests and the
// demo command. Positions, deals and ticks are mutated directly by the test
// or scenario driver; the guardian only ever sees the Gateway surface.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/market"
)

type Gateway struct {
	mu        sync.Mutex
	connected bool

	positions map[int64]market.Position
	deals     []market.Deal
	ticks     map[string]market.Tick

	// Failure injection
	failConnect   bool
	unavailable   bool
	rejectTickets map[int64]broker.RejectedError

	closeOrders []broker.CloseOrderRequest
}

func New() *Gateway {
	return &Gateway{
		positions:     make(map[int64]market.Position),
		ticks:         make(map[string]market.Tick),
		rejectTickets: make(map[int64]broker.RejectedError),
	}
}

func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failConnect {
		return broker.ErrUnavailable
	}
	g.connected = true
	return nil
}

func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected && !g.unavailable
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = false
	return nil
}

func (g *Gateway) ListOpenPositions(ctx context.Context, symbolFilter string) ([]market.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || g.unavailable {
		return nil, broker.ErrUnavailable
	}

	var out []market.Position
	for _, p := range g.positions {
		if symbolFilter != "" && p.Symbol != symbolFilter {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (g *Gateway) ListClosedDeals(ctx context.Context, since, until time.Time) ([]market.Deal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || g.unavailable {
		return nil, broker.ErrUnavailable
	}

	var out []market.Deal
	for _, d := range g.deals {
		if d.Time.Before(since) || d.Time.After(until) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (g *Gateway) CurrentTick(ctx context.Context, symbol string) (market.Tick, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || g.unavailable {
		return market.Tick{}, broker.ErrUnavailable
	}
	t, ok := g.ticks[symbol]
	if !ok {
		return market.Tick{}, broker.ErrNoPriceData
	}
	return t, nil
}

// SubmitCloseOrder records the request and, unless a rejection is staged for
// the ticket, removes the position and appends a closing deal at the order
// price.
func (g *Gateway) SubmitCloseOrder(ctx context.Context, req broker.CloseOrderRequest) (broker.CloseResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || g.unavailable {
		return broker.CloseResult{}, broker.ErrUnavailable
	}

	g.closeOrders = append(g.closeOrders, req)

	if rej, ok := g.rejectTickets[req.Ticket]; ok {
		rej.Ticket = req.Ticket
		return broker.CloseResult{Ticket: req.Ticket, Code: rej.Code, Comment: rej.Comment}, &rej
	}

	pos, ok := g.positions[req.Ticket]
	if ok {
		delete(g.positions, req.Ticket)
		dealType := market.DealSell
		if req.Side == market.Long {
			dealType = market.DealBuy
		}
		g.deals = append(g.deals, market.Deal{
			Ticket: req.Ticket,
			Symbol: req.Symbol,
			Type:   dealType,
			Volume: req.Volume,
			Price:  req.Price,
			Profit: pos.Profit,
			Time:   time.Now(),
		})
	}

	return broker.CloseResult{Ticket: req.Ticket, Comment: "done"}, nil
}

// --- scenario controls ---

// OpenPosition adds or replaces a live position.
func (g *Gateway) OpenPosition(p market.Position) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions[p.Ticket] = p
}

// RemovePosition simulates the trader or broker closing a position outside
// the guardian's control.
func (g *Gateway) RemovePosition(ticket int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.positions, ticket)
}

// AddDeal appends a historical deal.
func (g *Gateway) AddDeal(d market.Deal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deals = append(g.deals, d)
}

// SetTick publishes a bid/ask quote for a symbol.
func (g *Gateway) SetTick(t market.Tick) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ticks[t.Symbol] = t
}

// DropTick removes the quote for a symbol so tick lookups fail.
func (g *Gateway) DropTick(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ticks, symbol)
}

// RejectCloses stages a rejection for every close order on ticket.
func (g *Gateway) RejectCloses(ticket int64, code int, comment string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejectTickets[ticket] = broker.RejectedError{Code: code, Comment: comment}
}

// SetUnavailable toggles a simulated connection outage.
func (g *Gateway) SetUnavailable(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unavailable = down
}

// FailConnect makes subsequent Connect calls fail.
func (g *Gateway) FailConnect(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failConnect = fail
}

// CloseOrders returns a copy of every close order submitted so far.
func (g *Gateway) CloseOrders() []broker.CloseOrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]broker.CloseOrderRequest, len(g.closeOrders))
	copy(out, g.closeOrders)
	return out
}

// OpenCount returns the number of live positions.
func (g *Gateway) OpenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.positions)
}

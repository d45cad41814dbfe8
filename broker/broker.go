// Package broker defines the gateway the guardian consumes. The guardian
// never talks to a terminal directly; everything goes through Gateway so a
// deterministic in-memory implementation can stand in during tests.
package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/sentinel/market"
)

// Gateway is the broker connection the guardian enforces against.
//
// Every call may block on network I/O. Implementations must return
// ErrUnavailable (possibly wrapped) when the connection is down so callers
// can distinguish "no data" from "zero".
type Gateway interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Close() error

	// ListOpenPositions returns all currently open positions, optionally
	// restricted to a single symbol. Empty filter means all symbols.
	ListOpenPositions(ctx context.Context, symbolFilter string) ([]market.Position, error)

	// ListClosedDeals returns historical deals with a settlement time in
	// [since, until].
	ListClosedDeals(ctx context.Context, since, until time.Time) ([]market.Deal, error)

	// CurrentTick returns the latest bid/ask for symbol, or ErrNoPriceData.
	CurrentTick(ctx context.Context, symbol string) (market.Tick, error)

	// SubmitCloseOrder submits a market order closing an existing position.
	SubmitCloseOrder(ctx context.Context, req CloseOrderRequest) (CloseResult, error)
}

// CloseMagic tags guardian-originated close orders so they can be told apart
// from user activity in downstream reports.
const CloseMagic = 999999

// CloseComment is attached to every guardian close order.
const CloseComment = "sentinel-close"

// CloseOrderRequest describes a market order that closes position Ticket.
// Side is the order side (opposite of the position's side), Price the
// current bid/ask the order is priced against.
type CloseOrderRequest struct {
	Ticket    int64
	Symbol    string
	Volume    float64
	Side      market.Side
	Price     float64
	Deviation int // allowed slippage in points
	Magic     int
	Comment   string
}

// CloseResult is the broker's response to a close order.
type CloseResult struct {
	Ticket  int64
	Code    int
	Comment string
}

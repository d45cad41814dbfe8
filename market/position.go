package market

import "time"

// Cash is an amount in account-currency units. Cent accounts report cents.
type Cash = float64

// Side is the direction of an open position.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the order side that closes a position on this side.
func (s Side) Opposite() Side {
	if s == Long {
		return Short
	}
	return Long
}

// Position is a live open position as reported by the broker. Positions are
// externally mutated: the trader or broker may open or close them at any
// time, so a Position is only ever a point-in-time observation.
type Position struct {
	Ticket       int64 // broker-assigned position identifier
	Symbol       string
	Side         Side
	Volume       float64
	OpenPrice    float64
	CurrentPrice float64
	Profit       Cash // floating profit at observation time
	OpenTime     time.Time
}

// Tick is a bid/ask quote for a symbol.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

package market

import "time"

// DealType classifies a historical deal. Only buy/sell deals count toward
// realized P&L; balance operations (deposits, withdrawals, adjustments) are
// excluded.
type DealType int

const (
	DealBuy DealType = iota
	DealSell
	DealBalance
)

// Deal is a closed-trade record from broker history. Immutable once recorded.
type Deal struct {
	Ticket     int64
	Symbol     string
	Type       DealType
	Volume     float64
	Price      float64
	Profit     Cash
	Swap       Cash
	Commission Cash
	Time       time.Time
}

// IsTrade reports whether the deal is an actual buy/sell trade.
func (d Deal) IsTrade() bool {
	return d.Type == DealBuy || d.Type == DealSell
}

// NetProfit is the deal's contribution to realized P&L.
func (d Deal) NetProfit() Cash {
	return d.Profit + d.Swap + d.Commission
}

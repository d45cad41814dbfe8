package guardian

import (
	"time"

	"github.com/rustyeddy/sentinel/market"
)

// Mode is the enforcement mode.
type Mode int

const (
	// Normal means trading is allowed; the guardian only watches P&L.
	Normal Mode = iota
	// Block means the daily loss ceiling was breached; any position opened
	// while blocked is closed as soon as it is seen.
	Block
)

func (m Mode) String() string {
	if m == Block {
		return "BLOCK"
	}
	return "NORMAL"
}

// State is the guardian's mutable aggregate. It is owned exclusively by the
// enforcement loop; nothing outside the loop mutates it. BLOCK implies
// BlockTriggeredAt is set, NORMAL implies it is zero.
type State struct {
	Mode             Mode
	Known            map[int64]struct{} // position tickets seen at the last poll
	DailyPnL         market.Cash
	LastReset        time.Time
	BlockTriggeredAt time.Time
	PositionsClosed  int // close-all successes since last reset
	SneakyBlocked    int // block-mode closes since last reset
}

// Snapshot is an immutable copy of State published for dashboards and the
// health endpoint. Readers never touch State itself.
type Snapshot struct {
	Time             time.Time   `json:"time"`
	Mode             string      `json:"mode"`
	TradingAllowed   bool        `json:"trading_allowed"`
	DailyPnL         market.Cash `json:"daily_pnl"`
	KnownPositions   []int64     `json:"known_positions"`
	LastReset        time.Time   `json:"last_reset"`
	BlockTriggeredAt *time.Time  `json:"block_triggered_at,omitempty"`
	PositionsClosed  int         `json:"positions_closed_today"`
	SneakyBlocked    int         `json:"sneaky_positions_blocked"`
}

func (s *State) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Time:            now,
		Mode:            s.Mode.String(),
		TradingAllowed:  s.Mode == Normal,
		DailyPnL:        s.DailyPnL,
		LastReset:       s.LastReset,
		PositionsClosed: s.PositionsClosed,
		SneakyBlocked:   s.SneakyBlocked,
	}
	if !s.BlockTriggeredAt.IsZero() {
		t := s.BlockTriggeredAt
		snap.BlockTriggeredAt = &t
	}
	snap.KnownPositions = make([]int64, 0, len(s.Known))
	for ticket := range s.Known {
		snap.KnownPositions = append(snap.KnownPositions, ticket)
	}
	return snap
}

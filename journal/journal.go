// Package journal is the guardian's append-only action log. Every
// enforcement decision and outcome becomes one Event; events are never
// mutated or deleted, and they outlive the process so a timeline can be
// reconstructed during audit.
package journal

import "time"

// Action identifies what the guardian did or observed.
type Action string

const (
	ActionStart          Action = "START"
	ActionConnected      Action = "CONNECTED"
	ActionConnectionLost Action = "CONNECTION_LOST"
	ActionConnectFailed  Action = "CONNECT_FAILED"
	ActionThresholdHit   Action = "THRESHOLD_EXCEEDED"
	ActionBlockMode      Action = "ACTIVE_BLOCK_MODE"
	ActionCloseAll       Action = "CLOSE_ALL"
	ActionPositionClosed Action = "POSITION_CLOSED"
	ActionCloseFailed    Action = "CLOSE_FAILED"
	ActionSneakyBlocked  Action = "SNEAKY_BLOCKED"
	ActionDailyReset     Action = "DAILY_RESET"
	ActionForceReset     Action = "FORCE_RESET"
	ActionError          Action = "ERROR"
	ActionShutdown       Action = "SHUTDOWN"
)

// Outcome classifies how an action ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeError   Outcome = "ERROR"
	OutcomeInfo    Outcome = "INFO"
)

// Event is one append-only enforcement record.
type Event struct {
	ID        string // ULID, time-sortable
	Time      time.Time
	Action    Action
	Detail    string  // human-readable context
	PnL       float64 // daily P&L snapshot at event time
	Positions int     // known position count at event time
	Outcome   Outcome
}

// Journal persists enforcement events.
//
// Implementations may fail; the guardian swallows journal errors (reporting
// them on stderr) because logging must never abort enforcement.
type Journal interface {
	Record(Event) error
	Close() error
}

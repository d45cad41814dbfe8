package guardian

// CommandKind selects the operator action injected into the loop.
type CommandKind int

const (
	// CmdForceReset clears the block and counters immediately, as if a new
	// trading day had started.
	CmdForceReset CommandKind = iota
	// CmdCloseAll closes every open position without changing mode.
	CmdCloseAll
)

// Command is an operator request. Commands arrive over a channel so the
// enforcement goroutine stays the single writer of guardian state; a UI or
// remote control never calls into guardian internals directly.
type Command struct {
	Kind CommandKind

	// Done, when non-nil, receives the applied-state snapshot once the
	// command has been processed.
	Done chan<- Snapshot
}

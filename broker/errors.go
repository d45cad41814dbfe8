package broker

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the gateway connection is down or was never
// established. Callers must not treat it as a zero reading.
var ErrUnavailable = errors.New("broker: gateway unavailable")

// ErrNoPriceData means no tick is available for the symbol being closed.
var ErrNoPriceData = errors.New("broker: no price data")

// RejectedError is returned when the broker declines an order. It carries
// the broker's reason code and comment for the action log.
type RejectedError struct {
	Ticket  int64
	Code    int
	Comment string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("broker: order for ticket %d rejected: %s (code %d)", e.Ticket, e.Comment, e.Code)
}

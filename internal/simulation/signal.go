package simulation

import "fmt"

// Signal is a driver lifecycle notification.
type Signal int

const (
	SignalStart Signal = iota
	SignalStep
	SignalVisibleStep
	SignalEnd       // natural completion
	SignalStop      // cancelled
	SignalInterrupt // unhandled fault
)

// Signals lists every signal in declaration order.
var Signals = []Signal{SignalStart, SignalStep, SignalVisibleStep, SignalEnd, SignalStop, SignalInterrupt}

func (s Signal) String() string {
	switch s {
	case SignalStart:
		return "start"
	case SignalStep:
		return "step"
	case SignalVisibleStep:
		return "visible_step"
	case SignalEnd:
		return "end"
	case SignalStop:
		return "stop"
	case SignalInterrupt:
		return "interrupt"
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// MarshalText renders the signal by name.
func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Notice is the payload of every signal.
type Notice struct {
	Signal  Signal  `json:"signal"`
	RunID   string  `json:"run_id"`
	Time    float64 `json:"time"`
	Message string  `json:"message,omitempty"` // interrupt reason
	Result  *Result `json:"result,omitempty"`  // set for end, stop and interrupt
}

// SignalHandler observes driver signals. Handlers run synchronously on the
// driving goroutine and must not call back into the driver.
type SignalHandler func(Notice)

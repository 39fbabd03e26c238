package teamdesk

import "time"

// Outcome values reported in CallEvent.Outcome.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeFault   = "fault"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// CallEvent describes one dispatched remote call, including the implicit Login.
type CallEvent struct {
	RequestID string
	Method    string
	Started   time.Time
	Duration  time.Duration
	Outcome   string
	// Message holds the fault string or error text for failed calls.
	Message string
}

// CallObserver receives an event after every remote call completes.
type CallObserver interface {
	ObserveCall(event CallEvent)
}

// ObserverFunc adapts a function to CallObserver.
type ObserverFunc func(CallEvent)

func (f ObserverFunc) ObserveCall(event CallEvent) { f(event) }

package teamdesk

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteFault matches every *FaultError.
	ErrRemoteFault = errors.New("remote fault")
	// ErrInvalidResponse reports a response that fits no known result shape.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrParseFailure reports an embedded XML payload that could not be read.
	ErrParseFailure = errors.New("payload parse failure")
)

// FaultError carries a SOAP fault returned by the service. Message is the
// fault string exactly as sent.
type FaultError struct {
	Method  string
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s fault: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("%s fault (%s): %s", e.Method, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrRemoteFault) match.
func (e *FaultError) Is(target error) bool {
	return target == ErrRemoteFault
}

func invalidResponse(method, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", method, ErrInvalidResponse, fmt.Sprintf(format, args...))
}

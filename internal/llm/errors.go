package llm

import (
	"errors"
	"fmt"
)

// GatewayError describes a failed model invocation. StatusCode is zero when
// the request never got an HTTP response (transport failure, timeout).
type GatewayError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsGatewayError reports whether err came out of a provider call.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

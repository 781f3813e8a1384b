package trigger

import "fmt"

// TransportError reports a failure to reach the API or to read its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("trigger: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SessionError reports an answer from the API that carried no redirect URL.
type SessionError struct {
	StatusCode int
	Message    string
}

func (e *SessionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("trigger: session request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("trigger: session request failed with status %d: %s", e.StatusCode, e.Message)
}

package telemetry

import "fmt"

// NetworkError reports a request that did not complete, or whose body could
// not be decoded (Malformed). Both are handled the same way by callers.
type NetworkError struct {
	Path      string
	RequestID string
	Malformed bool
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("telemetry %s: malformed response: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("telemetry %s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError reports a non-success HTTP status from the service.
type ResponseError struct {
	Path       string
	RequestID  string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("telemetry %s: status %d: %s", e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("telemetry %s: status %d", e.Path, e.StatusCode)
}

package practicum

import "fmt"

// ConnectionError reports that the homework API could not be reached at all.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("homework API %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a response with a status other than 200.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("homework API %s returned status %d", e.Endpoint, e.StatusCode)
}

package dextools

import "fmt"

// NetworkError is a transport-level failure: timeout, refused connection,
// DNS, a cancelled context, or a body that could not be read.
type NetworkError struct {
	Endpoint Endpoint
	ID       string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("dextools %s %s: network: %v", e.Endpoint, e.ID, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	Endpoint   Endpoint
	ID         string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("dextools %s %s: status %d: %s", e.Endpoint, e.ID, e.StatusCode, string(e.Body))
}

// SchemaError is a response that does not carry the expected envelope.
type SchemaError struct {
	Endpoint Endpoint
	ID       string
	Reason   string
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dextools %s %s: schema: %s: %v", e.Endpoint, e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("dextools %s %s: schema: %s", e.Endpoint, e.ID, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

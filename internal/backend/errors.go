package backend

import "fmt"

// NetworkError indicates the transport failed entirely: no HTTP
// response was received from the backend.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError indicates the backend answered with a non-2xx status.
// Detail carries the human-readable message extracted from the
// response body; the session controller classifies it.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Detail)
}

// EmptyResponseError indicates a 2xx response whose audio payload was
// zero bytes. Text headers may still have been decoded successfully.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string {
	return "backend returned empty audio response"
}

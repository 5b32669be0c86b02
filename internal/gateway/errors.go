package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned for blank searches before any request is made
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrKeySessionExpired means the proxy no longer accepts the selected
	// key. The key picker has already been reopened when it is returned.
	ErrKeySessionExpired = errors.New("API Key session expired. Please try again.")
)

// keyNotFoundMarker in a server error body means the selected key is gone
const keyNotFoundMarker = "Requested entity was not found"

// ServerError is a non-2xx answer from the proxy. StatusCode is 0 when no
// response was received at all.
type ServerError struct {
	StatusCode int
	Body       string
	Err        error // transport failure, if any
}

func (e *ServerError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("proxy unreachable: %v", e.Err)
	}
	return fmt.Sprintf("proxy returned %d: %s", e.StatusCode, e.Body)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// InvalidResponseError is a 2xx answer whose body could not be used
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid proxy response: " + e.Reason
}

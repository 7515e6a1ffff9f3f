package dispatcher

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyCommand is returned for commands that are blank after trimming.
	// No request is made.
	ErrEmptyCommand = errors.New("command is empty")

	// ErrSubmissionPending is returned when a Submitter already has a command
	// in flight. The second submission is dropped without side effects.
	ErrSubmissionPending = errors.New("a command is already being processed")
)

// TransportError reports a request that never produced a usable HTTP 2xx
// response. Status is zero when the request did not reach the server.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transport error: %s", e.Message)
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a 2xx body that is not a command response.
type MalformedResponseError struct {
	Body []byte
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

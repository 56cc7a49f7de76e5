package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlankInput is returned when the submitted text is empty after
	// trimming. Nothing is sent and the state is untouched.
	ErrBlankInput = errors.New("chat: blank input")

	// ErrInFlight is returned when Submit is called while a previous
	// exchange has not settled. Nothing is sent and the state is untouched.
	ErrInFlight = errors.New("chat: request already in flight")

	errMissingReply = errors.New("response has no reply field")
)

const (
	transportFailureText = "Failed to get response from backend"
	malformedFailureText = "Malformed response from backend"
)

// TransportError means no response was received: DNS or connection
// failure, or the request context ended first.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a response with a non-2xx status.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("chat: server returned %d: %s", e.StatusCode, e.message())
}

// message picks the text shown to the user: the "error" field of a JSON
// body, else the raw body, else the status.
func (e *ServerError) message() string {
	body := strings.TrimSpace(e.Body)
	if body != "" {
		var payload struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Error != nil {
			if msg := strings.TrimSpace(*payload.Error); msg != "" {
				return msg
			}
		}
		return body
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// MalformedResponseError is a 2xx response whose body is not JSON or has
// no reply field.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("chat: malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UserMessage converts an exchange error into the text stored in
// State.LastError.
func UserMessage(err error) string {
	var (
		serverErr    *ServerError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &serverErr):
		return serverErr.message()
	case errors.As(err, &malformedErr):
		return malformedFailureText
	default:
		return transportFailureText
	}
}

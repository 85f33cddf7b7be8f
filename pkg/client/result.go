package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/splitrail/splitrail-web/pkg/dto"
)

// ErrUnexpectedResponse is returned when the server answers with something
// that is not a response envelope.
var ErrUnexpectedResponse = errors.New("unexpected response from server")

// APIError carries the message of a {success: false} response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Result is a response envelope decoded once at the boundary: either Data
// is set, or Err describes why the server refused the call.
type Result[T any] struct {
	Data T
	Err  *APIError
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the data or the API error.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Data, nil
}

func decodeResult[T any](status int, body []byte) (Result[T], error) {
	var env dto.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return Result[T]{}, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return Result[T]{Err: &APIError{Status: status, Message: msg}}, nil
	}

	var r Result[T]
	if env.Data != nil {
		r.Data = *env.Data
	}
	return r, nil
}

// messageFor prefers the server's text and falls back to a fixed message
// for transport failures.
func messageFor(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// StatusTimeout is the status carried by a RequestError produced by the client-side timeout.
const StatusTimeout = http.StatusRequestTimeout

const genericFailure = "Request failed"

// RequestError is a non-success HTTP response or a client-side timeout.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// TransportError means no HTTP response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a response body was present but was not valid JSON for the target type.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || IsStatus(err, StatusTimeout)
}

// errorMessage extracts {message} from an error body. An unparsable or empty body yields
// the generic failure text; a JSON body without a message yields the numeric status.
func errorMessage(status int, body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return genericFailure
	}
	if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}
	return fmt.Sprintf("HTTP error %d", status)
}

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrMalformedResponse is returned when a success response cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response from backend")

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.StatusCode, e.Detail())
}

// Detail is the server-provided explanation: a JSON error/message/detail
// field when the body is a JSON object, otherwise the raw body text, and
// the status text when the body is empty.
func (e *StatusError) Detail() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return http.StatusText(e.StatusCode)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return body
}

// TransportError means no response was obtained at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is the underlying failure text, without the request URL noise
// that net/http adds. Empty when the failure carries no message.
func (e *TransportError) Message() string {
	if e.Err == nil {
		return ""
	}
	err := e.Err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	return strings.TrimSpace(err.Error())
}

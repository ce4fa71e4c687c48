package qbo

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// HTTPClientError reports a non-success response from Intuit
type HTTPClientError struct {
	code    int
	message string
}

func (e *HTTPClientError) Error() string {
	return fmt.Sprintf("status: %d message: %s", e.code, e.message)
}

// StatusCode is the http status returned by the remote service
func (e *HTTPClientError) StatusCode() int {
	return e.code
}

// ExchangeError reports a failure to swap an authorization code for
// tokens, whether refused by Intuit or not delivered.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return "token exchange: " + e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// APICallError reports a failed authenticated api call
type APICallError struct {
	Path string
	Err  error
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("api call %s: %s", e.Path, e.Err)
}

func (e *APICallError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time
func (e *APICallError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

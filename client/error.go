package client

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTransport is the sentinel wrapped by [TransportError].
	ErrTransport = errors.New("transport failure")
	// ErrEncoding is the sentinel wrapped by [EncodingError].
	ErrEncoding = errors.New("encoding failure")
	// ErrInvalidConfig is returned when a [RequestConfig] fails validation.
	ErrInvalidConfig = errors.New("invalid request config")
)

// TransportError is returned when the exchange itself fails: host
// resolution, refused connections, timeouts or I/O errors.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s %s %s: %v", ErrTransport, e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was a connect or read deadline.
func (e *TransportError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// EncodingError is returned when a parameter cannot be represented in
// the requested charset. No network I/O has happened when it is returned.
type EncodingError struct {
	Charset string
	Key     string
	Err     error
}

func (e *EncodingError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: charset %q: %v", ErrEncoding, e.Charset, e.Err)
	}

	return fmt.Sprintf("%v: charset %q, param %q: %v", ErrEncoding, e.Charset, e.Key, e.Err)
}

func (e *EncodingError) Unwrap() []error {
	return []error{ErrEncoding, e.Err}
}

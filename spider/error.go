package spider

import (
	"errors"
	"fmt"
)

// maxErrBodySize caps the amount of body read when building an
// [UnexpectedStatusError].
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrHandler is the sentinel wrapped by [HandlerError].
	ErrHandler = errors.New("handler failure")
	// ErrClosed is returned for asynchronous dispatch after [Spider.Close].
	ErrClosed = errors.New("spider closed")
	// ErrNilHandler is returned when a dispatch method is given no handler.
	ErrNilHandler = errors.New("handler must not be nil")
	// ErrUnexpectedStatusCode is the sentinel wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrChecksumMismatch is returned by [SaveTo] when the written file
	// does not hash to the expected value.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrContentLengthMismatch is returned by [SaveTo] when fewer or more
	// bytes than announced were written.
	ErrContentLengthMismatch = errors.New("content length mismatch")
)

// HandlerError is returned when a handler fails during a synchronous
// dispatch.
type HandlerError struct {
	Method string
	URL    string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrHandler, e.Method, e.URL, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandler, e.Err}
}

// UnexpectedStatusError is returned by the bundled handlers when the
// response status does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d: %s", ErrUnexpectedStatusCode, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

// MismatchError details a failed [SaveTo] verification.
type MismatchError struct {
	Detail string
	Err    error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *MismatchError) Unwrap() error {
	return e.Err
}

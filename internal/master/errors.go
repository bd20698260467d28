package master

import (
	"errors"
	"fmt"
)

// Base error kinds.
var (
	ErrTransport = errors.New("transport error")
	ErrPayload   = errors.New("malformed payload")
)

// ErrorKind categorizes a failed read.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindPayload   ErrorKind = "payload"
)

// Error describes a failed read against one master endpoint.
type Error struct {
	Endpoint   string
	Kind       ErrorKind
	StatusCode int // zero when no response was received
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport and ErrPayload by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrPayload:
		return e.Kind == KindPayload
	}
	return false
}

func transportError(endpoint string, status int, err error) error {
	return &Error{Endpoint: endpoint, Kind: KindTransport, StatusCode: status, Err: err}
}

func payloadError(endpoint string, status int, err error) error {
	return &Error{Endpoint: endpoint, Kind: KindPayload, StatusCode: status, Err: err}
}

package openweather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for any non-2xx upstream response, most commonly
	// an unknown city name.
	ErrNotFound           = errors.New("the entered name was not found")
	ErrMethodNotSupported = errors.New("method not supported, choose between GET and POST")
	ErrUnknownKind        = errors.New("unknown request kind, choose between one and forecast")
	ErrInvalidResponse    = errors.New("upstream response is not valid JSON")
)

// StatusError carries the upstream status of a failed request. It matches
// ErrNotFound with errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", ErrNotFound.Error(), e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound
}

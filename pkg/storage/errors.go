package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrUnavailable wraps an underlying bbolt I/O failure. Callers map it to
// the StoreUnavailable condition rather than inspecting the bbolt error
// directly.
type ErrUnavailable struct {
	Op  string
	Err error
}

func (e *ErrUnavailable) Error() string {
	return "storage: " + e.Op + " unavailable: " + e.Err.Error()
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

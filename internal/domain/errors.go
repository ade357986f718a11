package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrCapacityReached   = errors.New("max open positions reached")
	ErrDuplicatePosition = errors.New("position already open for market")
	ErrNotOpen           = errors.New("position is not open")
	ErrInvalidStatus     = errors.New("invalid position status")
)

// IsCapacityError reports whether err is an expected open rejection
// (duplicate market or capacity). Callers skip these silently.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrCapacityReached) || errors.Is(err, ErrDuplicatePosition)
}

// FetchError indica que un adapter no pudo entregar su batch en este ciclo.
type FetchError struct {
	Platform Platform
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Platform, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError indica que el store no confirmó una escritura.
// Es fatal para el ciclo en curso.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

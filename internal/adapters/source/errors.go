package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrOpen      = errors.New("open results source failed")
	ErrBadRow    = errors.New("malformed result row")
	ErrBadFormat = errors.New("unknown results format")
)

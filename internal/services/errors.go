package services

import "errors"

// Typed failures the order core can report. Handlers branch on these with
// errors.Is to pick a response code.
var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrMissingField      = errors.New("missing required field")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrVersionConflict   = errors.New("order was modified concurrently")
)

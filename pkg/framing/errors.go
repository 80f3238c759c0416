package framing

import "errors"

// Package framing errors.
var (
	// ErrFrameTooLarge is returned when a record's length prefix is 0 or
	// exceeds MaxBodySize.
	ErrFrameTooLarge = errors.New("framing: record length out of range")
)

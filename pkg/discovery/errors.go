package discovery

import "errors"

// Package-level sentinel errors for discovery operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed Advertiser.
	ErrClosed = errors.New("discovery: closed")

	// ErrAlreadyStarted is returned by Start when advertisement is already active.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrNotStarted is returned by Stop/Update when nothing is being advertised.
	ErrNotStarted = errors.New("discovery: not started")

	// ErrInvalidID is returned when the accessory id is not a valid
	// HAP "id" value (six colon-separated uppercase hex pairs).
	ErrInvalidID = errors.New("discovery: invalid accessory id (want AA:BB:CC:DD:EE:FF)")

	// ErrInvalidPort describes a port number outside 1-65535. No function
	// in this package returns it: NewAdvertiser replaces an out-of-range
	// port with DefaultPort.
	ErrInvalidPort = errors.New("discovery: invalid port (must be 1-65535)")

	// ErrInvalidModel is returned when the model string is empty.
	ErrInvalidModel = errors.New("discovery: invalid model (must be non-empty)")
)

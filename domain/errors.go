package domain

import "errors"

// Error taxonomy. These are the only constructional/lifecycle failures
// the core surfaces; submit and poll_trade signal backpressure and
// emptiness with plain booleans, never errors.
var (
	// ErrInvalidCapacity is returned at construction time when a ring
	// capacity is zero or not a power of two.
	ErrInvalidCapacity = errors.New("matchcore: capacity must be a non-zero power of two")

	// ErrInvalidState is returned for a lifecycle transition that is not
	// valid from the engine's current state (e.g. starting twice).
	ErrInvalidState = errors.New("matchcore: invalid engine state transition")

	// ErrInvalidOrder is returned when add/match is called with a
	// non-positive quantity.
	ErrInvalidOrder = errors.New("matchcore: order quantity must be positive")
)

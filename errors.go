package linviz

import "errors"

// Input errors
var (
	// ErrDataContract indicates that the upstream dataset violates the input
	// schema: a missing required field, an out-of-range step index, or a
	// partition that has linearizations but no events.
	ErrDataContract = errors.New("data contract violation")

	// ErrUnknownFormat indicates that a dataset format could not be determined.
	ErrUnknownFormat = errors.New("unknown dataset format")
)

// Configuration errors
var (
	// ErrConfig indicates an invalid configuration value.
	ErrConfig = errors.New("invalid configuration")
)

// Interaction errors
var (
	// ErrNoSuchEvent indicates that a (partition, event) reference does not exist.
	ErrNoSuchEvent = errors.New("no such event")
)

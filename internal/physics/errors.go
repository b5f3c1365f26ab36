package physics

import "errors"

// Domain errors for world and body operations.
var (
	// ErrInvalidArgument indicates a value failed construction-time validation.
	ErrInvalidArgument = errors.New("physics: invalid argument")

	// ErrUnknownBody indicates a handle that no longer names a live body.
	ErrUnknownBody = errors.New("physics: unknown body handle")

	// ErrUnknownConstraint indicates a handle that no longer names a live constraint.
	ErrUnknownConstraint = errors.New("physics: unknown constraint handle")

	// ErrUnsupported indicates the world does not implement the operation.
	ErrUnsupported = errors.New("physics: operation not supported by this world")
)

package analysis

import "errors"

// ErrNotFound indicates no matching analysis run exists.
var ErrNotFound = errors.New("analysis not found")

// ErrDuplicateInFlight indicates a non-terminal run already exists for the
// loan; rejected synchronously, nothing persisted.
var ErrDuplicateInFlight = errors.New("analysis already in flight for loan")

// ErrInvalidInput indicates a malformed submission; rejected synchronously.
var ErrInvalidInput = errors.New("invalid input")

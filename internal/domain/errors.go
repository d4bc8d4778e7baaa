package domain

import "errors"

var (
	// ErrChainUnavailable is returned when the JSON-RPC provider cannot be
	// reached; callers retry with backoff
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrRangeTooLarge is returned when the provider rejects a log query span;
	// callers halve the chunk and retry
	ErrRangeTooLarge = errors.New("log query range too large")

	// ErrInvalidJobPayload is returned for structurally invalid jobs; retrying
	// will not help, the job goes straight to the dead-letter table
	ErrInvalidJobPayload = errors.New("invalid job payload")

	// ErrDuplicateEvent is returned when an event has already been applied to
	// the read model; treated as a successful no-op, not a failure
	ErrDuplicateEvent = errors.New("duplicate event")
)

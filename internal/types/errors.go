package types

import "errors"

// Outcome taxonomy shared by the store, the managers and the bot boundary.
// Handlers match with errors.Is and turn each kind into a user-facing
// message; none of these may escape to a process crash.
var (
	// ErrConflict is a uniqueness or duplication violation: duplicate party
	// name, double vote, double application, already in a party.
	ErrConflict = errors.New("conflict")

	// ErrForbidden means the actor lacks the required role (not leader, not
	// admin, not a sitting deputy).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced entity no longer exists, typically
	// after racing a deletion or closure.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is a failed precondition (election needs two registered
	// parties, malformed numeric input in a guided flow).
	ErrInvalid = errors.New("invalid")

	// ErrUpstreamUnavailable marks an identity-service timeout or transport
	// error. Callers treat it as "not verified" and never crash on it.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

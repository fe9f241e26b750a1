package workflow

import "errors"

// Base errors for the workflow taxonomy. Operations wrap these with
// fmt.Errorf("%w: ...") so callers branch with errors.Is while still seeing
// what went wrong. None are recovered internally; all surface to the caller.
var (
	// ErrValidation: malformed or missing required input (missing rejection
	// reason, category mismatch on assignment, malformed date in a proposal).
	ErrValidation = errors.New("validation failed")

	// ErrNotAllowed: the actor fails the role-resolver predicate for the
	// attempted operation. Never downgraded to a no-op.
	ErrNotAllowed = errors.New("not allowed")

	// ErrStateConflict: the operation is not valid from the entity's current
	// state (already processed, duplicate pending return). Callers should
	// re-fetch current state.
	ErrStateConflict = errors.New("already processed")

	// ErrTagExhausted: the tag allocator found no free tag within its bounded
	// attempts. The caller decides whether to retry with another prefix/length.
	ErrTagExhausted = errors.New("asset tag space exhausted")

	// ErrInconsistent: a cross-entity reference (category/unit id in a diff)
	// points at nothing; the write is rejected rather than left dangling.
	ErrInconsistent = errors.New("referenced entity does not exist")

	// ErrNoChanges signals that a change proposal matched the asset's current
	// values field for field. Not a failure: no record is created.
	ErrNoChanges = errors.New("no changes detected")

	// ErrNotFound: the target entity does not exist within the actor's agency.
	ErrNotFound = errors.New("not found")
)

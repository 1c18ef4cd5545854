package bandit

import "errors"

// #region errors

// Configuration errors: fatal, abort the post cycle, never retried.
var (
	// ErrUnsupportedPlatform flags a platform string outside the supported set.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrEmptyDimension flags an action-space dimension with no values.
	ErrEmptyDimension = errors.New("empty action space dimension")

	// ErrMissingContext flags an invalid or incomplete decision context.
	ErrMissingContext = errors.New("missing or invalid context field")
)

// Transient store errors: recoverable with bounded retry, then escalated.
// Losing a learning signal silently is never acceptable.
var (
	// ErrRetriesExhausted surfaces a store update that failed after the
	// bounded retry budget.
	ErrRetriesExhausted = errors.New("store update retries exhausted")
)

// Caller-contract errors.
var (
	// ErrDuplicateLearn flags a second learning pass for the same action,
	// which would double-count the sample and bias the preference.
	ErrDuplicateLearn = errors.New("learning already applied for action")
)

// #endregion errors

package handle

import "errors"

// Tracking errors. All are programmer or invariant errors: a failed Track
// call means either the operation under test had unexpected side effects or
// the expectation itself was wrong.
var (
	// ErrHandleReused indicates a declared-created handle does not exceed
	// the kind's high water mark.
	ErrHandleReused = errors.New("handle value reused")

	// ErrDuplicateCreated indicates the same handle was declared created
	// twice in one call.
	ErrDuplicateCreated = errors.New("handle declared created twice")

	// ErrCreatedInvalid indicates a declared-created handle is not live.
	ErrCreatedInvalid = errors.New("created handle not valid")

	// ErrRemovedStillValid indicates a declared-removed handle is still live.
	ErrRemovedStillValid = errors.New("removed handle still valid")

	// ErrRemovedUntracked indicates a declared-removed handle was never in
	// the previous baseline.
	ErrRemovedUntracked = errors.New("removed handle was never tracked")

	// ErrActiveChanged indicates the active handle changed without
	// expectChange being set.
	ErrActiveChanged = errors.New("active handle changed unexpectedly")

	// ErrActiveUnchanged indicates expectChange was set but the active
	// handle did not change.
	ErrActiveUnchanged = errors.New("active handle did not change")

	// ErrLiveSetMismatch indicates the observed live set differs from
	// previous + created - removed.
	ErrLiveSetMismatch = errors.New("live handle set mismatch")
)

package verify

import "errors"

// Check errors. All are fatal to the check cycle that raised them; the
// oracle never silently repairs state.
var (
	// ErrDanglingDecl indicates a declared ID has no live instance.
	ErrDanglingDecl = errors.New("declaration references no live instance")

	// ErrUndeclared indicates a live instance with no declared transition
	// and no prior check to infer a steady successor from.
	ErrUndeclared = errors.New("live instance has no declared or inferable transition")

	// ErrDisappeared indicates an instance alive at the previous cycle is
	// gone without a teardown or discard declaration accounting for it.
	ErrDisappeared = errors.New("instance disappeared without teardown")

	// ErrStillLive indicates an instance declared torn down or discarded
	// is still live.
	ErrStillLive = errors.New("instance declared destroyed is still live")

	// ErrInvariant indicates a structural invariant does not hold for the
	// declared or inferred transition.
	ErrInvariant = errors.New("structural invariant violated")

	// ErrChangeTimeout indicates an expected content change was not
	// observed within the bounded wait.
	ErrChangeTimeout = errors.New("expected content change not observed in time")

	// ErrUnexpectedChange indicates content changed during a stability
	// window that declared it kept.
	ErrUnexpectedChange = errors.New("content changed during stability window")
)

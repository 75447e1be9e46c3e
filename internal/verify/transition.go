// Package verify checks that exactly the expected set of Infoview and Info
// instances changed state on each logical step.
//
// Callers declare transitions for the instances they exercised; the oracle
// infers the steady-state successor for every live instance left
// unmentioned, checks the structural invariants of each transition, and
// delegates the implied window and buffer handle deltas to the handle
// tracker. The declarative vocabulary here is the stable protocol test
// suites build on; it depends on no test framework's extension mechanism.
package verify

// ViewTransition names what an Infoview underwent during one check cycle.
type ViewTransition int

const (
	// ViewUnchecked is the zero value; never a valid declaration.
	ViewUnchecked ViewTransition = iota

	// Opened: a previously closed Infoview acquired a display window.
	Opened
	// OpenedFromInit: a brand-new Infoview was created and opened,
	// minting its Info in the same step.
	OpenedFromInit
	// KeptOpen: an open Infoview stayed open with the same window.
	KeptOpen
	// Closed: an open Infoview lost its display window; Info retained.
	Closed
	// ClosedFromInit: a brand-new Infoview was created closed, minting
	// its Info eagerly.
	ClosedFromInit
	// KeptClosed: a closed Infoview stayed closed.
	KeptClosed
)

// String returns the transition's declarative name.
func (t ViewTransition) String() string {
	switch t {
	case Opened:
		return "opened"
	case OpenedFromInit:
		return "opened-from-init"
	case KeptOpen:
		return "kept-open"
	case Closed:
		return "closed"
	case ClosedFromInit:
		return "closed-from-init"
	case KeptClosed:
		return "kept-closed"
	default:
		return "unchecked"
	}
}

// SteadySuccessor returns the canonical next transition for an Infoview
// not explicitly exercised this cycle. Total over valid transitions.
func SteadySuccessor(t ViewTransition) ViewTransition {
	switch t {
	case Opened, OpenedFromInit, KeptOpen:
		return KeptOpen
	case Closed, ClosedFromInit, KeptClosed:
		return KeptClosed
	default:
		return ViewUnchecked
	}
}

// isFromInit reports whether the transition mints a brand-new Info.
func (t ViewTransition) isFromInit() bool {
	return t == OpenedFromInit || t == ClosedFromInit
}

// isOpenFamily reports whether the transition leaves the panel open.
func (t ViewTransition) isOpenFamily() bool {
	return t == Opened || t == OpenedFromInit || t == KeptOpen
}

// InfoTransition names what an Info underwent during one check cycle.
type InfoTransition int

const (
	// InfoUnchecked is the zero value; never a valid declaration.
	InfoUnchecked InfoTransition = iota

	// ContentOpened: the Info was freshly minted this cycle.
	ContentOpened
	// ContentKept: the Info's message observably did not change.
	ContentKept
	// ContentChanged: the Info's message observably changed.
	ContentChanged
)

// String returns the transition's declarative name.
func (t InfoTransition) String() string {
	switch t {
	case ContentOpened:
		return "content-opened"
	case ContentKept:
		return "kept"
	case ContentChanged:
		return "content-changed"
	default:
		return "unchecked"
	}
}

// InfoSteadySuccessor returns the canonical next transition for an Info
// not explicitly exercised this cycle.
func InfoSteadySuccessor(t InfoTransition) InfoTransition {
	switch t {
	case ContentOpened, ContentKept, ContentChanged:
		return ContentKept
	default:
		return InfoUnchecked
	}
}

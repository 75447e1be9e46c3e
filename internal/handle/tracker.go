// Package handle verifies window and buffer handle deltas across operations.
//
// A Tracker snapshots the live handle set for each kind before and after an
// operation and checks that the observed creations and removals match a
// declared expectation, that no handle value is ever reused, and that the
// active handle changed only when the caller said it would. It is pure
// bookkeeping over the editor surface; it never mutates infoview state.
package handle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/infopane/internal/editor"
)

// registry holds the per-kind baseline from the previous Track call.
type registry struct {
	live      map[editor.Handle]struct{}
	active    editor.Handle
	highWater editor.Handle
}

func newRegistry(live []editor.Handle, active editor.Handle) *registry {
	r := &registry{
		live:   make(map[editor.Handle]struct{}, len(live)),
		active: active,
	}
	for _, h := range live {
		r.live[h] = struct{}{}
		if h > r.highWater {
			r.highWater = h
		}
	}
	return r
}

// Tracker is the handle-delta oracle over one editor surface.
//
// Tracker is not safe for concurrent use; checks run on the test's single
// control flow.
type Tracker struct {
	surface editor.Surface
	regs    map[editor.Kind]*registry
}

// NewTracker creates a tracker baselined on the surface's current state.
func NewTracker(surface editor.Surface) *Tracker {
	t := &Tracker{
		surface: surface,
		regs:    make(map[editor.Kind]*registry),
	}
	t.Reset()
	return t
}

// Reset re-baselines both kinds from the current surface state. The high
// water mark is seeded from the highest currently live handle.
func (t *Tracker) Reset() {
	t.regs[editor.KindWindow] = newRegistry(t.surface.Windows(), t.surface.CurrentWindow())
	t.regs[editor.KindBuffer] = newRegistry(t.surface.Buffers(), t.surface.CurrentBuffer())
}

// HighWater returns the highest handle value ever observed for the kind.
func (t *Tracker) HighWater(kind editor.Kind) editor.Handle {
	return t.regs[kind].highWater
}

// Active returns the baseline active handle for the kind, as of the last
// successful Track call (or Reset).
func (t *Tracker) Active(kind editor.Kind) editor.Handle {
	return t.regs[kind].active
}

// Track verifies the handle delta for one kind since the previous call.
//
// created must list exactly the handles allocated since the last baseline;
// each must be live, above the kind's high water mark, and unique within the
// call. removed must list exactly the handles destroyed; each must be dead
// now and present in the previous baseline. expectChange declares whether
// the active handle is expected to differ from the previous baseline's.
//
// On success the baseline and high water mark advance; on failure the
// baseline is left untouched so the failure can be inspected.
func (t *Tracker) Track(kind editor.Kind, created, removed []editor.Handle, expectChange bool) error {
	reg := t.regs[kind]

	observed, active := t.snapshot(kind)

	if changed := active != reg.active; changed != expectChange {
		if expectChange {
			return fmt.Errorf("%s: %w: still %d", kind, ErrActiveUnchanged, active)
		}
		return fmt.Errorf("%s: %w: %d -> %d", kind, ErrActiveChanged, reg.active, active)
	}

	seen := make(map[editor.Handle]struct{}, len(created))
	for _, h := range created {
		if _, dup := seen[h]; dup {
			return fmt.Errorf("%s %d: %w", kind, h, ErrDuplicateCreated)
		}
		seen[h] = struct{}{}

		if !t.valid(kind, h) {
			return fmt.Errorf("%s %d: %w", kind, h, ErrCreatedInvalid)
		}
		if h <= reg.highWater {
			return fmt.Errorf("%s %d: %w (high water %d)", kind, h, ErrHandleReused, reg.highWater)
		}
	}

	for _, h := range removed {
		if t.valid(kind, h) {
			return fmt.Errorf("%s %d: %w", kind, h, ErrRemovedStillValid)
		}
		if _, ok := reg.live[h]; !ok {
			return fmt.Errorf("%s %d: %w", kind, h, ErrRemovedUntracked)
		}
	}

	expected := make(map[editor.Handle]struct{}, len(reg.live)+len(created))
	for h := range reg.live {
		expected[h] = struct{}{}
	}
	for _, h := range created {
		expected[h] = struct{}{}
	}
	for _, h := range removed {
		delete(expected, h)
	}

	if !sameSet(expected, observed) {
		return fmt.Errorf("%s: %w: expected %s, got %s",
			kind, ErrLiveSetMismatch, renderSet(expected), renderSet(observed))
	}

	// Advance the baseline.
	reg.live = observed
	reg.active = active
	for _, h := range created {
		if h > reg.highWater {
			reg.highWater = h
		}
	}

	return nil
}

func (t *Tracker) snapshot(kind editor.Kind) (map[editor.Handle]struct{}, editor.Handle) {
	var handles []editor.Handle
	var active editor.Handle
	switch kind {
	case editor.KindWindow:
		handles = t.surface.Windows()
		active = t.surface.CurrentWindow()
	case editor.KindBuffer:
		handles = t.surface.Buffers()
		active = t.surface.CurrentBuffer()
	}

	set := make(map[editor.Handle]struct{}, len(handles))
	for _, h := range handles {
		set[h] = struct{}{}
	}
	return set, active
}

func (t *Tracker) valid(kind editor.Kind, h editor.Handle) bool {
	switch kind {
	case editor.KindWindow:
		return t.surface.ValidWindow(h)
	case editor.KindBuffer:
		return t.surface.ValidBuffer(h)
	}
	return false
}

func sameSet(a, b map[editor.Handle]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for h := range a {
		if _, ok := b[h]; !ok {
			return false
		}
	}
	return true
}

func renderSet(set map[editor.Handle]struct{}) string {
	if len(set) == 0 {
		return "{}"
	}
	handles := make([]editor.Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = fmt.Sprintf("%d", h)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

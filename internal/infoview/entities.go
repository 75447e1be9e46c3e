// Package infoview implements the panel lifecycle core: Info and Infoview
// entities, the store that owns them, and the synchronization engine that
// drives their state transitions.
package infoview

import (
	"sync"

	"github.com/dshills/infopane/internal/editor"
)

// ViewID uniquely identifies an Infoview. IDs increase monotonically and
// are never reused, even after teardown.
type ViewID uint64

// InfoID uniquely identifies an Info. Same allocation rules as ViewID.
type InfoID uint64

// Info is the content object for one panel instance: a content buffer and
// the last rendered message. Exactly one Infoview owns an Info at any
// instant, though an Infoview may discard one Info and own a new one over
// its lifetime.
type Info struct {
	id  InfoID
	buf editor.Handle

	mu  sync.Mutex
	msg string

	// gen tags in-flight content queries; a response is applied only if
	// the generation it captured is still current. dead marks an Info
	// whose owner replaced or tore it down, so late responses discard.
	// Both are guarded by the owning engine, not by mu.
	gen  uint64
	dead bool

	// Check-cycle bookkeeping, written only by the verification oracle
	// at the end of a check.
	PrevMsg string
	PrevBuf editor.Handle
}

// ID returns the Info's identity.
func (i *Info) ID() InfoID { return i.id }

// Buf returns the handle of the Info's content buffer.
func (i *Info) Buf() editor.Handle { return i.buf }

// Msg returns the last rendered message.
func (i *Info) Msg() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.msg
}

// SetMsg records a newly rendered message.
func (i *Info) SetMsg(msg string) {
	i.mu.Lock()
	i.msg = msg
	i.mu.Unlock()
}

// Infoview is a panel instance: open/closed state, a display window when
// open, and exclusive ownership of one Info.
//
// State is mutated only by the engine; the Prev fields are written only by
// the verification oracle between check cycles.
type Infoview struct {
	id   ViewID
	open bool
	win  editor.Handle
	info *Info

	// Check-cycle bookkeeping, owned by the verification oracle.
	PrevWin    editor.Handle
	PrevInfoID InfoID
}

// ID returns the Infoview's identity.
func (v *Infoview) ID() ViewID { return v.id }

// IsOpen reports whether the panel currently has a display window.
func (v *Infoview) IsOpen() bool { return v.open }

// Win returns the display window handle, or editor.None when closed.
func (v *Infoview) Win() editor.Handle { return v.win }

// Info returns the currently owned Info. Never nil for a live Infoview:
// the Info is minted eagerly when the Infoview is created.
func (v *Infoview) Info() *Info { return v.info }

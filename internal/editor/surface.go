// Package editor abstracts the editor surface that owns windows and buffers.
//
// The infoview engine drives panels through the Surface interface but does
// not own the surface implementation. Handles are opaque editor-assigned
// identifiers; zero is never a valid handle.
package editor

// Handle is an opaque editor-assigned identifier for a window or buffer.
type Handle int

// None is the zero handle. It never identifies a live window or buffer.
const None Handle = 0

// Kind identifies a class of handle.
type Kind int

const (
	// KindWindow identifies display window handles.
	KindWindow Kind = iota
	// KindBuffer identifies content buffer handles.
	KindBuffer
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWindow:
		return "window"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Surface defines the editor primitives the infoview engine depends on.
// Implementations handle actual window and buffer management.
type Surface interface {
	// CreateWindow opens a display window showing the given buffer and
	// returns its handle. The new window receives focus.
	CreateWindow(buf Handle) (Handle, error)

	// CloseWindow destroys a window. The buffer it displayed survives.
	// Closing the focused window moves focus to the most recently created
	// surviving window.
	CloseWindow(win Handle) error

	// FocusWindow moves focus to the given window.
	FocusWindow(win Handle) error

	// CurrentWindow returns the focused window handle, or None.
	CurrentWindow() Handle

	// Windows returns all live window handles in ascending order.
	Windows() []Handle

	// ValidWindow reports whether the handle identifies a live window.
	ValidWindow(win Handle) bool

	// WindowBuffer returns the buffer displayed in the given window.
	WindowBuffer(win Handle) (Handle, error)

	// CreateBuffer allocates a new named buffer and returns its handle.
	// Creating a buffer does not change the active buffer.
	CreateBuffer(name string) (Handle, error)

	// DeleteBuffer destroys a buffer. Fails if a window still displays it.
	DeleteBuffer(buf Handle) error

	// CurrentBuffer returns the active buffer handle, or None.
	CurrentBuffer() Handle

	// Buffers returns all live buffer handles in ascending order.
	Buffers() []Handle

	// ValidBuffer reports whether the handle identifies a live buffer.
	ValidBuffer(buf Handle) bool

	// SetBufferLines replaces the full content of a buffer.
	SetBufferLines(buf Handle, lines []string) error

	// BufferLines returns the content of a buffer.
	BufferLines(buf Handle) ([]string, error)
}

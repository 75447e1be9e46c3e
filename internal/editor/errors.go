package editor

import "errors"

// Surface errors.
var (
	// ErrInvalidWindow indicates the handle does not identify a live window.
	ErrInvalidWindow = errors.New("invalid window handle")

	// ErrInvalidBuffer indicates the handle does not identify a live buffer.
	ErrInvalidBuffer = errors.New("invalid buffer handle")

	// ErrBufferInUse indicates a buffer is still displayed in a window.
	ErrBufferInUse = errors.New("buffer displayed in a window")
)

package format

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ErrNoFormatFunction indicates the script did not define a global
// format(text) function.
var ErrNoFormatFunction = errors.New("script does not define format(text)")

// Hook runs a user Lua script over panel content before layout.
//
// The script must define a global function format(text) returning a string.
// A failing script disables the hook for the rest of the session; panel
// content is never lost to a bad script.
//
// Hook is safe for concurrent use; the underlying Lua state is serialized.
type Hook struct {
	mu       sync.Mutex
	state    *lua.LState
	disabled bool
	onError  func(error)
}

// LoadHook compiles and runs the script at path and validates its format
// function. onError, if non-nil, is called when a later Apply fails.
func LoadHook(path string, onError func(error)) (*Hook, error) {
	state := lua.NewState()

	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("load format hook %s: %w", path, err)
	}

	fn := state.GetGlobal("format")
	if _, ok := fn.(*lua.LFunction); !ok {
		state.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoFormatFunction)
	}

	return &Hook{state: state, onError: onError}, nil
}

// Apply runs the script's format function over text. On any script error
// the original text is returned and the hook disables itself.
func (h *Hook) Apply(text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disabled {
		return text
	}

	err := h.state.CallByParam(lua.P{
		Fn:      h.state.GetGlobal("format"),
		NRet:    1,
		Protect: true,
	}, lua.LString(text))
	if err != nil {
		h.fail(err)
		return text
	}

	ret := h.state.Get(-1)
	h.state.Pop(1)

	out, ok := ret.(lua.LString)
	if !ok {
		h.fail(fmt.Errorf("format returned %s, want string", ret.Type()))
		return text
	}

	return string(out)
}

// Close releases the Lua state.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != nil {
		h.state.Close()
		h.state = nil
		h.disabled = true
	}
}

func (h *Hook) fail(err error) {
	h.disabled = true
	if h.onError != nil {
		h.onError(err)
	}
}

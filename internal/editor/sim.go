package editor

import (
	"fmt"
	"sort"
	"sync"
)

// Sim is an in-memory Surface for tests and headless operation.
//
// Handle values increase monotonically per kind and are never reused,
// matching real editor behavior that the handle tracker depends on.
//
// Sim is safe for concurrent use.
type Sim struct {
	mu sync.Mutex

	nextWin Handle
	nextBuf Handle

	windows map[Handle]Handle // window -> displayed buffer
	buffers map[Handle][]string
	names   map[Handle]string

	curWin Handle
	curBuf Handle
}

// NewSim creates an empty simulated surface.
func NewSim() *Sim {
	return &Sim{
		nextWin: 1,
		nextBuf: 1,
		windows: make(map[Handle]Handle),
		buffers: make(map[Handle][]string),
		names:   make(map[Handle]string),
	}
}

func (s *Sim) CreateWindow(buf Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buffers[buf]; !ok {
		return None, fmt.Errorf("create window: %w: %d", ErrInvalidBuffer, buf)
	}

	win := s.nextWin
	s.nextWin++
	s.windows[win] = buf

	// Focus follows creation; the displayed buffer becomes active.
	s.curWin = win
	s.curBuf = buf

	return win, nil
}

func (s *Sim) CloseWindow(win Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[win]; !ok {
		return fmt.Errorf("close window: %w: %d", ErrInvalidWindow, win)
	}
	delete(s.windows, win)

	if s.curWin == win {
		s.curWin = s.newestWindowLocked()
		if s.curWin != None {
			s.curBuf = s.windows[s.curWin]
		}
	}

	return nil
}

func (s *Sim) FocusWindow(win Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.windows[win]
	if !ok {
		return fmt.Errorf("focus window: %w: %d", ErrInvalidWindow, win)
	}
	s.curWin = win
	s.curBuf = buf
	return nil
}

func (s *Sim) CurrentWindow() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curWin
}

func (s *Sim) Windows() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, 0, len(s.windows))
	for w := range s.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Sim) ValidWindow(win Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.windows[win]
	return ok
}

func (s *Sim) WindowBuffer(win Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.windows[win]
	if !ok {
		return None, fmt.Errorf("window buffer: %w: %d", ErrInvalidWindow, win)
	}
	return buf, nil
}

func (s *Sim) CreateBuffer(name string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.nextBuf
	s.nextBuf++
	s.buffers[buf] = nil
	s.names[buf] = name

	if s.curBuf == None {
		s.curBuf = buf
	}

	return buf, nil
}

func (s *Sim) DeleteBuffer(buf Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buffers[buf]; !ok {
		return fmt.Errorf("delete buffer: %w: %d", ErrInvalidBuffer, buf)
	}
	for win, b := range s.windows {
		if b == buf {
			return fmt.Errorf("delete buffer %d: %w (window %d)", buf, ErrBufferInUse, win)
		}
	}
	delete(s.buffers, buf)
	delete(s.names, buf)

	if s.curBuf == buf {
		s.curBuf = s.newestBufferLocked()
	}

	return nil
}

func (s *Sim) CurrentBuffer() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curBuf
}

func (s *Sim) Buffers() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, 0, len(s.buffers))
	for b := range s.buffers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Sim) ValidBuffer(buf Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buffers[buf]
	return ok
}

func (s *Sim) SetBufferLines(buf Handle, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buffers[buf]; !ok {
		return fmt.Errorf("set buffer lines: %w: %d", ErrInvalidBuffer, buf)
	}
	copied := make([]string, len(lines))
	copy(copied, lines)
	s.buffers[buf] = copied
	return nil
}

func (s *Sim) BufferLines(buf Handle) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, ok := s.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("buffer lines: %w: %d", ErrInvalidBuffer, buf)
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// BufferName returns the name a buffer was created with, for diagnostics.
func (s *Sim) BufferName(buf Handle) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[buf]
}

func (s *Sim) newestWindowLocked() Handle {
	var newest Handle
	for w := range s.windows {
		if w > newest {
			newest = w
		}
	}
	return newest
}

func (s *Sim) newestBufferLocked() Handle {
	var newest Handle
	for b := range s.buffers {
		if b > newest {
			newest = b
		}
	}
	return newest
}

// Verify Sim implements Surface.
var _ Surface = (*Sim)(nil)

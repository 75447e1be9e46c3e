package editor

import (
	"errors"
	"testing"
)

func TestSim_HandlesMonotonic(t *testing.T) {
	s := NewSim()

	b1, err := s.CreateBuffer("a")
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	b2, _ := s.CreateBuffer("b")
	if b2 <= b1 {
		t.Errorf("buffer handles not increasing: %d then %d", b1, b2)
	}

	w1, err := s.CreateWindow(b1)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if err := s.CloseWindow(w1); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}

	// A destroyed handle's value is never reissued.
	w2, _ := s.CreateWindow(b1)
	if w2 <= w1 {
		t.Errorf("window handle reused: %d after closing %d", w2, w1)
	}
}

func TestSim_FocusFollowsCreation(t *testing.T) {
	s := NewSim()

	b1, _ := s.CreateBuffer("a")
	b2, _ := s.CreateBuffer("b")

	w1, _ := s.CreateWindow(b1)
	if s.CurrentWindow() != w1 {
		t.Errorf("CurrentWindow = %d, want %d", s.CurrentWindow(), w1)
	}
	if s.CurrentBuffer() != b1 {
		t.Errorf("CurrentBuffer = %d, want %d", s.CurrentBuffer(), b1)
	}

	w2, _ := s.CreateWindow(b2)
	if s.CurrentWindow() != w2 {
		t.Errorf("CurrentWindow = %d, want %d", s.CurrentWindow(), w2)
	}

	// Closing the focused window refocuses the newest survivor.
	if err := s.CloseWindow(w2); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if s.CurrentWindow() != w1 {
		t.Errorf("CurrentWindow after close = %d, want %d", s.CurrentWindow(), w1)
	}
	if s.CurrentBuffer() != b1 {
		t.Errorf("CurrentBuffer after close = %d, want %d", s.CurrentBuffer(), b1)
	}
}

func TestSim_CreateBufferKeepsFocus(t *testing.T) {
	s := NewSim()

	b1, _ := s.CreateBuffer("a")
	if s.CurrentBuffer() != b1 {
		t.Errorf("first buffer should become active, got %d", s.CurrentBuffer())
	}

	b2, _ := s.CreateBuffer("b")
	if s.CurrentBuffer() != b1 {
		t.Errorf("creating buffer %d moved focus to it", b2)
	}
}

func TestSim_DeleteBufferInUse(t *testing.T) {
	s := NewSim()

	b, _ := s.CreateBuffer("a")
	w, _ := s.CreateWindow(b)

	if err := s.DeleteBuffer(b); !errors.Is(err, ErrBufferInUse) {
		t.Errorf("DeleteBuffer with window open = %v, want ErrBufferInUse", err)
	}

	if err := s.CloseWindow(w); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if err := s.DeleteBuffer(b); err != nil {
		t.Errorf("DeleteBuffer after close: %v", err)
	}
	if s.ValidBuffer(b) {
		t.Error("buffer still valid after delete")
	}
}

func TestSim_BufferLines(t *testing.T) {
	s := NewSim()

	b, _ := s.CreateBuffer("a")
	want := []string{"one", "two"}
	if err := s.SetBufferLines(b, want); err != nil {
		t.Fatalf("SetBufferLines: %v", err)
	}

	got, err := s.BufferLines(b)
	if err != nil {
		t.Fatalf("BufferLines: %v", err)
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("BufferLines = %v, want %v", got, want)
	}

	// Mutating the returned slice must not affect the buffer.
	got[0] = "mutated"
	again, _ := s.BufferLines(b)
	if again[0] != "one" {
		t.Error("BufferLines returned an aliased slice")
	}

	if _, err := s.BufferLines(Handle(999)); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("BufferLines(999) = %v, want ErrInvalidBuffer", err)
	}
}

func TestSim_InvalidHandles(t *testing.T) {
	s := NewSim()

	if _, err := s.CreateWindow(Handle(42)); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("CreateWindow(42) = %v, want ErrInvalidBuffer", err)
	}
	if err := s.CloseWindow(Handle(42)); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("CloseWindow(42) = %v, want ErrInvalidWindow", err)
	}
	if err := s.FocusWindow(Handle(42)); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("FocusWindow(42) = %v, want ErrInvalidWindow", err)
	}
	if s.ValidWindow(None) || s.ValidBuffer(None) {
		t.Error("zero handle must never be valid")
	}
}

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Debug("drop me")
	l.Info("drop me too")
	l.Warn("keep me")
	l.Error("keep me too")

	out := buf.String()
	if strings.Contains(out, "drop me") {
		t.Errorf("below-level message written: %q", out)
	}
	if !strings.Contains(out, "keep me") || !strings.Contains(out, "keep me too") {
		t.Errorf("at-level messages missing: %q", out)
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Prefix: "test"})

	l.Info("opened infoview %d", 7)

	out := buf.String()
	if !strings.Contains(out, "[INFO] test: opened infoview 7") {
		t.Errorf("unexpected line: %q", out)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf}).WithComponent("engine")

	l.Info("hello")

	out := buf.String()
	if !strings.Contains(out, "component=engine") {
		t.Errorf("field missing: %q", out)
	}

	// The derived logger must not mutate the parent.
	buf.Reset()
	parent := New(Config{Level: LevelDebug, Output: &buf})
	_ = parent.WithField("k", "v")
	parent.Info("plain")
	if strings.Contains(buf.String(), "k=v") {
		t.Errorf("parent logger gained child field: %q", buf.String())
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf}).
		WithField("zeta", 1).
		WithField("alpha", 2)

	l.Info("x")

	if !strings.Contains(buf.String(), "{alpha=2, zeta=1}") {
		t.Errorf("fields not in sorted order: %q", buf.String())
	}
}

func TestNullLogger(t *testing.T) {
	// Must not panic and must not write anywhere.
	NullLogger.Error("nothing")
	NullLogger.WithComponent("x").Info("still nothing")
}

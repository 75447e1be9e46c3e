package format

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "format.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadHook(t *testing.T) {
	path := writeScript(t, `
function format(text)
  return "| " .. text
end
`)

	hook, err := LoadHook(path, nil)
	if err != nil {
		t.Fatalf("LoadHook: %v", err)
	}
	defer hook.Close()

	if got := hook.Apply("⊢ True"); got != "| ⊢ True" {
		t.Errorf("Apply = %q, want %q", got, "| ⊢ True")
	}
}

func TestLoadHook_MissingFunction(t *testing.T) {
	path := writeScript(t, `x = 1`)

	if _, err := LoadHook(path, nil); !errors.Is(err, ErrNoFormatFunction) {
		t.Errorf("LoadHook = %v, want ErrNoFormatFunction", err)
	}
}

func TestLoadHook_MissingFile(t *testing.T) {
	if _, err := LoadHook(filepath.Join(t.TempDir(), "nope.lua"), nil); err == nil {
		t.Error("LoadHook on missing file succeeded")
	}
}

func TestHook_FailureDisables(t *testing.T) {
	path := writeScript(t, `
function format(text)
  error("boom")
end
`)

	var reported error
	hook, err := LoadHook(path, func(err error) { reported = err })
	if err != nil {
		t.Fatalf("LoadHook: %v", err)
	}
	defer hook.Close()

	if got := hook.Apply("⊢ True"); got != "⊢ True" {
		t.Errorf("failing hook mangled text: %q", got)
	}
	if reported == nil {
		t.Error("onError not called")
	}

	// Disabled hook passes text through without re-running the script.
	reported = nil
	if got := hook.Apply("again"); got != "again" {
		t.Errorf("disabled hook returned %q", got)
	}
	if reported != nil {
		t.Error("disabled hook re-ran the script")
	}
}

func TestHook_NonStringReturnDisables(t *testing.T) {
	path := writeScript(t, `
function format(text)
  return 42
end
`)

	hook, err := LoadHook(path, nil)
	if err != nil {
		t.Fatalf("LoadHook: %v", err)
	}
	defer hook.Close()

	if got := hook.Apply("⊢ True"); got != "⊢ True" {
		t.Errorf("Apply after bad return = %q, want original", got)
	}
}

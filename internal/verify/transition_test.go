package verify

import "testing"

func TestSteadySuccessor(t *testing.T) {
	tests := []struct {
		in   ViewTransition
		want ViewTransition
	}{
		{Opened, KeptOpen},
		{OpenedFromInit, KeptOpen},
		{KeptOpen, KeptOpen},
		{Closed, KeptClosed},
		{ClosedFromInit, KeptClosed},
		{KeptClosed, KeptClosed},
		{ViewUnchecked, ViewUnchecked},
	}

	for _, tt := range tests {
		if got := SteadySuccessor(tt.in); got != tt.want {
			t.Errorf("SteadySuccessor(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSteadySuccessor_Idempotent(t *testing.T) {
	for _, tr := range []ViewTransition{Opened, OpenedFromInit, KeptOpen, Closed, ClosedFromInit, KeptClosed} {
		once := SteadySuccessor(tr)
		if twice := SteadySuccessor(once); twice != once {
			t.Errorf("SteadySuccessor not idempotent at %s: %s then %s", tr, once, twice)
		}
	}
}

func TestInfoSteadySuccessor(t *testing.T) {
	for _, tr := range []InfoTransition{ContentOpened, ContentKept, ContentChanged} {
		if got := InfoSteadySuccessor(tr); got != ContentKept {
			t.Errorf("InfoSteadySuccessor(%s) = %s, want kept", tr, got)
		}
	}
	if got := InfoSteadySuccessor(InfoUnchecked); got != InfoUnchecked {
		t.Errorf("InfoSteadySuccessor(unchecked) = %s, want unchecked", got)
	}
}

func TestViewTransition_Families(t *testing.T) {
	open := []ViewTransition{Opened, OpenedFromInit, KeptOpen}
	closed := []ViewTransition{Closed, ClosedFromInit, KeptClosed}

	for _, tr := range open {
		if !tr.isOpenFamily() {
			t.Errorf("%s not in open family", tr)
		}
	}
	for _, tr := range closed {
		if tr.isOpenFamily() {
			t.Errorf("%s in open family", tr)
		}
	}

	for _, tr := range []ViewTransition{OpenedFromInit, ClosedFromInit} {
		if !tr.isFromInit() {
			t.Errorf("%s not from-init", tr)
		}
	}
	for _, tr := range []ViewTransition{Opened, KeptOpen, Closed, KeptClosed} {
		if tr.isFromInit() {
			t.Errorf("%s from-init", tr)
		}
	}
}

func TestTransitionStrings(t *testing.T) {
	if Opened.String() != "opened" || ClosedFromInit.String() != "closed-from-init" {
		t.Error("view transition names wrong")
	}
	if ContentChanged.String() != "content-changed" || InfoUnchecked.String() != "unchecked" {
		t.Error("info transition names wrong")
	}
}

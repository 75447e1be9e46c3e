package infoview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/infopane/internal/editor"
	"github.com/dshills/infopane/internal/format"
	"github.com/dshills/infopane/internal/provider"
)

func newTestEngine(t *testing.T, content provider.ContentProvider, opts ...Option) (*Engine, *editor.Sim) {
	t.Helper()
	sim := editor.NewSim()
	if content == nil {
		content = provider.NewStatic()
	}
	e := NewEngine(sim, content, opts...)
	t.Cleanup(e.Shutdown)
	return e, sim
}

func TestEngine_GetCreatesClosed(t *testing.T) {
	e, sim := newTestEngine(t, nil)

	v, err := e.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.IsOpen() {
		t.Error("fresh Infoview reports open")
	}
	if v.Info() == nil {
		t.Fatal("fresh Infoview has no Info")
	}
	if !sim.ValidBuffer(v.Info().Buf()) {
		t.Error("Info buffer not allocated")
	}

	// The fresh panel renders the empty layout immediately.
	lines, err := sim.BufferLines(v.Info().Buf())
	if err != nil {
		t.Fatalf("BufferLines: %v", err)
	}
	if len(lines) == 0 || lines[0] != format.Header {
		t.Errorf("initial render = %v, want header first", lines)
	}

	again, err := e.Get()
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if again != v {
		t.Error("Get minted a second primary")
	}
}

func TestEngine_OpenClose(t *testing.T) {
	e, sim := newTestEngine(t, nil)

	v, err := e.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !v.IsOpen() {
		t.Fatal("Infoview not open after Open")
	}
	win := v.Win()
	if !sim.ValidWindow(win) {
		t.Errorf("window %d invalid after open", win)
	}
	if buf, _ := sim.WindowBuffer(win); buf != v.Info().Buf() {
		t.Errorf("window shows buffer %d, want info buffer %d", buf, v.Info().Buf())
	}

	// Opening an open panel is a no-op: same window, no churn.
	if _, err := e.Open(); err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if v.Win() != win {
		t.Errorf("re-open changed window: %d -> %d", win, v.Win())
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if v.IsOpen() {
		t.Error("Infoview still open after Close")
	}
	if v.Win() != editor.None {
		t.Errorf("closed Infoview keeps window %d", v.Win())
	}
	if sim.ValidWindow(win) {
		t.Error("display window survived Close")
	}
	if !sim.ValidBuffer(v.Info().Buf()) {
		t.Error("Close destroyed the Info buffer")
	}

	// Closing a closed panel is a no-op.
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestEngine_ReopenKeepsInfo(t *testing.T) {
	prov := provider.NewStatic()
	pos := provider.At("demo.lean", 0, 0)
	prov.Set(pos, "⊢ True")
	e, _ := newTestEngine(t, prov)

	v, err := e.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	infoID := v.Info().ID()
	firstWin := v.Win()

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := e.Open(); err != nil {
		t.Fatalf("re-Open: %v", err)
	}

	if v.Info().ID() != infoID {
		t.Errorf("re-open replaced Info: %d -> %d", infoID, v.Info().ID())
	}
	if v.Info().Msg() != "⊢ True" {
		t.Errorf("re-open lost message: %q", v.Info().Msg())
	}
	if v.Win() == firstWin {
		t.Error("re-open reissued the old window handle")
	}
}

func TestEngine_TeardownMintsFreshIDs(t *testing.T) {
	e, sim := newTestEngine(t, nil)

	v1, err := e.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := v1.Info().Buf()

	if err := e.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if _, ok := e.Store().View(v1.ID()); ok {
		t.Error("torn-down view still registered")
	}
	if sim.ValidBuffer(buf) {
		t.Error("torn-down Info buffer still valid")
	}
	if _, ok := e.Primary(); ok {
		t.Error("primary survives teardown")
	}

	v2, err := e.Get()
	if err != nil {
		t.Fatalf("Get after teardown: %v", err)
	}
	if v2.ID() <= v1.ID() {
		t.Errorf("view ID reused: %d after %d", v2.ID(), v1.ID())
	}
	if v2.Info().ID() <= v1.Info().ID() {
		t.Errorf("info ID reused: %d after %d", v2.Info().ID(), v1.Info().ID())
	}
}

func TestEngine_RefreshRenders(t *testing.T) {
	prov := provider.NewStatic()
	pos := provider.At("demo.lean", 2, 4)
	prov.Set(pos, "case a\n⊢ True")
	e, sim := newTestEngine(t, prov)

	v, err := e.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Content flows while the panel is closed.
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v.Info().Msg() != "case a\n⊢ True" {
		t.Errorf("Msg = %q", v.Info().Msg())
	}

	lines, _ := sim.BufferLines(v.Info().Buf())
	want := []string{format.Header, "case a", "⊢ True"}
	if len(lines) != len(want) {
		t.Fatalf("rendered %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEngine_RefreshNoContentRetains(t *testing.T) {
	prov := provider.NewStatic()
	pos := provider.At("demo.lean", 0, 0)
	prov.Set(pos, "⊢ True")
	e, _ := newTestEngine(t, prov)

	v, _ := e.Get()
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Empty answer leaves the prior message in place.
	prov.Set(pos, "")
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v.Info().Msg() != "⊢ True" {
		t.Errorf("empty answer clobbered message: %q", v.Info().Msg())
	}
}

func TestEngine_RefreshProviderErrorRetains(t *testing.T) {
	fail := errors.New("server gone")
	var failing atomic.Bool
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		if failing.Load() {
			return "", fail
		}
		return "⊢ True", nil
	})
	e, _ := newTestEngine(t, prov)

	v, _ := e.Get()
	pos := provider.At("demo.lean", 0, 0)
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	failing.Store(true)
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Errorf("Refresh with failing provider = %v, want nil", err)
	}
	if v.Info().Msg() != "⊢ True" {
		t.Errorf("provider failure clobbered message: %q", v.Info().Msg())
	}
}

func TestEngine_StaleResponseDiscarded(t *testing.T) {
	// Each fetch parks until the test answers it, so responses can be
	// delivered out of order.
	calls := make(chan chan string, 2)
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		reply := make(chan string)
		calls <- reply
		return <-reply, nil
	})
	e, _ := newTestEngine(t, prov)

	v, _ := e.Get()
	pos := provider.At("demo.lean", 0, 0)

	done := make(chan error, 2)
	go func() { done <- e.Refresh(context.Background(), pos) }()
	first := <-calls
	go func() { done <- e.Refresh(context.Background(), pos) }()
	second := <-calls

	// The later request resolves first.
	second <- "fresh"
	if err := <-done; err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if v.Info().Msg() != "fresh" {
		t.Fatalf("Msg = %q, want %q", v.Info().Msg(), "fresh")
	}

	// The earlier request's late answer must not clobber it.
	first <- "stale"
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if v.Info().Msg() != "fresh" {
		t.Errorf("stale response applied: Msg = %q", v.Info().Msg())
	}
}

func TestEngine_InFlightResponseAfterTeardown(t *testing.T) {
	calls := make(chan chan string, 1)
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		reply := make(chan string)
		calls <- reply
		return <-reply, nil
	})
	e, sim := newTestEngine(t, prov)

	v, _ := e.Get()
	buf := v.Info().Buf()
	pos := provider.At("demo.lean", 0, 0)

	done := make(chan error, 1)
	go func() { done <- e.Refresh(context.Background(), pos) }()
	reply := <-calls

	if err := e.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}

	reply <- "late"
	if err := <-done; err != nil {
		t.Errorf("refresh racing teardown = %v, want nil", err)
	}
	if v.Info().Msg() != "" {
		t.Errorf("dead Info received message %q", v.Info().Msg())
	}
	if sim.ValidBuffer(buf) {
		t.Error("teardown left the Info buffer alive")
	}
}

func TestEngine_InFlightResponseAfterClose(t *testing.T) {
	calls := make(chan chan string, 1)
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		reply := make(chan string)
		calls <- reply
		return <-reply, nil
	})
	e, sim := newTestEngine(t, prov)

	v, err := e.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pos := provider.At("demo.lean", 0, 0)

	done := make(chan error, 1)
	go func() { done <- e.Refresh(context.Background(), pos) }()
	reply := <-calls

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The query started before the close; its answer must not land.
	reply <- "late"
	if err := <-done; err != nil {
		t.Errorf("refresh racing close = %v, want nil", err)
	}
	if v.Info().Msg() != "" {
		t.Errorf("closed panel received message %q", v.Info().Msg())
	}
	if !sim.ValidBuffer(v.Info().Buf()) {
		t.Error("Close destroyed the Info buffer")
	}

	// A refresh issued after the close still updates the hidden panel.
	go func() { done <- e.Refresh(context.Background(), pos) }()
	reply = <-calls
	reply <- "fresh"
	if err := <-done; err != nil {
		t.Fatalf("refresh while closed: %v", err)
	}
	if v.Info().Msg() != "fresh" {
		t.Errorf("Msg = %q, want %q", v.Info().Msg(), "fresh")
	}
}

func TestEngine_ResetView(t *testing.T) {
	prov := provider.NewStatic()
	pos := provider.At("demo.lean", 0, 0)
	prov.Set(pos, "⊢ True")
	e, sim := newTestEngine(t, prov)

	v, err := e.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	oldInfo := v.Info()
	oldBuf := oldInfo.Buf()
	oldWin := v.Win()

	if err := e.ResetView(v.ID()); err != nil {
		t.Fatalf("ResetView: %v", err)
	}

	if v.Info() == oldInfo {
		t.Fatal("ResetView kept the old Info")
	}
	if v.Info().ID() <= oldInfo.ID() {
		t.Errorf("replacement info ID %d not above %d", v.Info().ID(), oldInfo.ID())
	}
	if v.Info().Msg() != "" {
		t.Errorf("replacement carries message %q", v.Info().Msg())
	}
	if sim.ValidBuffer(oldBuf) {
		t.Error("old Info buffer survived reset")
	}
	if _, ok := e.Store().InfoByID(oldInfo.ID()); ok {
		t.Error("discarded Info still registered")
	}

	// The panel stays open, re-bound to the new buffer.
	if !v.IsOpen() {
		t.Error("ResetView closed the panel")
	}
	if v.Win() == oldWin {
		t.Error("ResetView reissued the old window handle")
	}
	if buf, _ := sim.WindowBuffer(v.Win()); buf != v.Info().Buf() {
		t.Errorf("window shows buffer %d, want %d", buf, v.Info().Buf())
	}
}

func TestEngine_ResetViewDiscardsInFlight(t *testing.T) {
	calls := make(chan chan string, 1)
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		reply := make(chan string)
		calls <- reply
		return <-reply, nil
	})
	e, _ := newTestEngine(t, prov)

	v, _ := e.Get()
	oldInfo := v.Info()
	pos := provider.At("demo.lean", 0, 0)

	done := make(chan error, 1)
	go func() { done <- e.Refresh(context.Background(), pos) }()
	reply := <-calls

	if err := e.ResetView(v.ID()); err != nil {
		t.Fatalf("ResetView: %v", err)
	}

	reply <- "late"
	if err := <-done; err != nil {
		t.Errorf("refresh racing reset = %v, want nil", err)
	}
	if oldInfo.Msg() != "" {
		t.Errorf("discarded Info received message %q", oldInfo.Msg())
	}
	if v.Info().Msg() != "" {
		t.Errorf("replacement received message %q", v.Info().Msg())
	}
}

func TestEngine_NotifyServerEventCoalesces(t *testing.T) {
	var fetches atomic.Int32
	prov := provider.Func(func(_ context.Context, _ provider.Position) (string, error) {
		fetches.Add(1)
		return "⊢ True", nil
	})
	e, _ := newTestEngine(t, prov, WithDebounce(15*time.Millisecond))

	v, _ := e.Get()
	pos := provider.At("demo.lean", 0, 0)
	e.SetPosition(pos)

	for i := 0; i < 8; i++ {
		e.NotifyServerEvent()
	}
	if !e.RefreshPending() {
		t.Error("RefreshPending = false during burst")
	}

	deadline := time.After(2 * time.Second)
	for fetches.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("debounced refresh never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	// A grace period to catch extra fires from the burst.
	time.Sleep(60 * time.Millisecond)

	if got := fetches.Load(); got != 1 {
		t.Errorf("burst triggered %d fetches, want 1", got)
	}
	if v.Info().Msg() != "⊢ True" {
		t.Errorf("debounced refresh did not apply: %q", v.Info().Msg())
	}
}

func TestEngine_NoInfoviewErrors(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if err := e.Close(); !errors.Is(err, ErrNoInfoview) {
		t.Errorf("Close without panel = %v, want ErrNoInfoview", err)
	}
	if err := e.Teardown(); !errors.Is(err, ErrNoInfoview) {
		t.Errorf("Teardown without panel = %v, want ErrNoInfoview", err)
	}
	pos := provider.At("demo.lean", 0, 0)
	if err := e.Refresh(context.Background(), pos); !errors.Is(err, ErrNoInfoview) {
		t.Errorf("Refresh without panel = %v, want ErrNoInfoview", err)
	}
	if err := e.RefreshView(context.Background(), ViewID(99), pos); !errors.Is(err, ErrNoInfoview) {
		t.Errorf("RefreshView(99) = %v, want ErrNoInfoview", err)
	}
}

func TestEngine_OpenNew(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	v1, err := e.OpenNew()
	if err != nil {
		t.Fatalf("OpenNew: %v", err)
	}
	if !v1.IsOpen() {
		t.Error("OpenNew returned a closed panel")
	}
	if p, ok := e.Primary(); !ok || p != v1 {
		t.Error("first OpenNew did not become primary")
	}

	v2, err := e.OpenNew()
	if err != nil {
		t.Fatalf("second OpenNew: %v", err)
	}
	if v2.ID() <= v1.ID() {
		t.Errorf("second panel ID %d not above %d", v2.ID(), v1.ID())
	}
	if p, _ := e.Primary(); p != v1 {
		t.Error("second OpenNew displaced the primary")
	}
	if len(e.Store().Views()) != 2 {
		t.Errorf("store holds %d views, want 2", len(e.Store().Views()))
	}
}

func TestEngine_RedrawPicksUpProgress(t *testing.T) {
	progress := provider.NewProgressTracker()
	prov := provider.NewStatic()
	pos := provider.At("demo.lean", 0, 0)
	prov.Set(pos, "⊢ True")
	e, sim := newTestEngine(t, prov, WithProgress(progress))

	v, _ := e.Get()
	if err := e.Refresh(context.Background(), pos); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	progress.ApplyNotification(provider.FileProgressNotification(pos.URI, [2]uint32{0, 1}))
	if err := e.Redraw(); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	lines, _ := sim.BufferLines(v.Info().Buf())
	if len(lines) == 0 || lines[len(lines)-1] != format.BusyLine {
		t.Errorf("busy render = %v, want busy line last", lines)
	}

	progress.ApplyNotification(provider.FileProgressNotification(pos.URI))
	if err := e.Redraw(); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	lines, _ = sim.BufferLines(v.Info().Buf())
	if lines[len(lines)-1] == format.BusyLine {
		t.Error("busy line survived done notification")
	}
}

package infoview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/infopane/internal/editor"
	"github.com/dshills/infopane/internal/format"
	"github.com/dshills/infopane/internal/log"
	"github.com/dshills/infopane/internal/provider"
)

// Engine drives Infoview state transitions in response to editor events
// and asynchronous language-server responses.
//
// All registry mutation is serialized through the engine's mutex; a content
// query suspends outside the lock, and its response is applied only if the
// Info's generation was not superseded while it was in flight. Closing or
// tearing down a panel bumps the generation, so late responses for it are
// discarded rather than applied.
type Engine struct {
	mu      sync.Mutex
	store   *Store
	surface editor.Surface
	content provider.ContentProvider

	progress  *provider.ProgressTracker
	logger    *log.Logger
	formatter func(string) string

	queryTimeout  time.Duration
	debounceDelay time.Duration
	debounce      *debouncer

	primary ViewID
	pos     provider.Position
	hasPos  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithQueryTimeout bounds a single content query.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) { e.queryTimeout = d }
}

// WithDebounce sets the quiet period for coalescing server events.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounceDelay = d }
}

// WithProgress attaches a progress tracker; panels show a busy indicator
// while the server is still processing the tracked document.
func WithProgress(p *provider.ProgressTracker) Option {
	return func(e *Engine) { e.progress = p }
}

// WithFormatter runs fn over message text before layout.
func WithFormatter(fn func(string) string) Option {
	return func(e *Engine) { e.formatter = fn }
}

// NewEngine creates an engine over the given surface and content provider.
func NewEngine(surface editor.Surface, content provider.ContentProvider, opts ...Option) *Engine {
	e := &Engine{
		store:         NewStore(),
		surface:       surface,
		content:       content,
		logger:        log.Default().WithComponent("engine"),
		queryTimeout:  5 * time.Second,
		debounceDelay: 150 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.debounce = newDebouncer(e.debounceDelay, e.debouncedRefresh)
	return e
}

// Store returns the registry of live Infoviews and Infos.
func (e *Engine) Store() *Store {
	return e.store
}

// Primary returns the engine's primary Infoview, if one exists.
func (e *Engine) Primary() (*Infoview, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.primary == 0 {
		return nil, false
	}
	return e.store.View(e.primary)
}

// Get returns the primary Infoview, creating it closed on first request.
func (e *Engine) Get() (*Infoview, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.primary != 0 {
		if v, ok := e.store.View(e.primary); ok {
			return v, nil
		}
	}

	v, err := e.newViewLocked()
	if err != nil {
		return nil, err
	}
	e.primary = v.id
	return v, nil
}

// Open ensures the primary Infoview exists and has a display window.
// Opening an already-open panel is a no-op.
func (e *Engine) Open() (*Infoview, error) {
	v, err := e.Get()
	if err != nil {
		return nil, err
	}
	if err := e.OpenView(v.id); err != nil {
		return nil, err
	}
	return v, nil
}

// OpenNew mints a new Infoview and opens it immediately. If no primary
// exists yet it becomes the primary.
func (e *Engine) OpenNew() (*Infoview, error) {
	e.mu.Lock()
	v, err := e.newViewLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.primary == 0 {
		e.primary = v.id
	}
	id := v.id
	e.mu.Unlock()

	if err := e.OpenView(id); err != nil {
		return nil, err
	}
	return v, nil
}

// OpenView allocates a display window for a closed Infoview and binds it
// to the existing Info's buffer. Already open is a no-op.
func (e *Engine) OpenView(id ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.store.View(id)
	if !ok {
		return fmt.Errorf("open view %d: %w", id, ErrNoInfoview)
	}
	if v.open {
		return nil
	}

	win, err := e.surface.CreateWindow(v.info.buf)
	if err != nil {
		return WrapError(err, "open view %d", id)
	}
	v.win = win
	v.open = true

	e.logger.Debug("opened infoview %d in window %d", id, win)
	return nil
}

// Close closes the primary Infoview's window. The Info and its buffer are
// retained untouched.
func (e *Engine) Close() error {
	e.mu.Lock()
	id := e.primary
	e.mu.Unlock()
	if id == 0 {
		return ErrNoInfoview
	}
	return e.CloseView(id)
}

// CloseView destroys a panel's display window and marks it closed.
// Already closed is a no-op.
func (e *Engine) CloseView(id ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.store.View(id)
	if !ok {
		return fmt.Errorf("close view %d: %w", id, ErrNoInfoview)
	}
	if !v.open {
		return nil
	}

	if err := e.surface.CloseWindow(v.win); err != nil {
		return WrapError(err, "close view %d", id)
	}
	v.win = editor.None
	v.open = false

	// Invalidate any query started before the close.
	v.info.gen++

	e.logger.Debug("closed infoview %d", id)
	return nil
}

// Teardown destroys the primary Infoview and its Info permanently.
func (e *Engine) Teardown() error {
	e.mu.Lock()
	id := e.primary
	e.mu.Unlock()
	if id == 0 {
		return ErrNoInfoview
	}
	return e.TeardownView(id)
}

// TeardownView destroys an Infoview and its owned Info. Their IDs are
// never reissued; any in-flight content query for the Info is discarded
// when it resolves.
func (e *Engine) TeardownView(id ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.store.View(id)
	if !ok {
		return fmt.Errorf("teardown view %d: %w", id, ErrNoInfoview)
	}

	if v.open {
		if err := e.surface.CloseWindow(v.win); err != nil {
			return WrapError(err, "teardown view %d", id)
		}
		v.win = editor.None
		v.open = false
	}

	if err := e.surface.DeleteBuffer(v.info.buf); err != nil {
		return WrapError(err, "teardown view %d", id)
	}

	e.store.RemoveView(id)
	if e.primary == id {
		e.primary = 0
	}

	e.logger.Debug("tore down infoview %d (info %d)", id, v.info.id)
	return nil
}

// ResetView discards an Infoview's Info and re-binds the panel to a fresh
// Info with an empty message and a new buffer. The discarded Info's ID is
// never reissued and any query in flight against it is dropped. An open
// panel's window moves to the new buffer.
func (e *Engine) ResetView(id ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.store.View(id)
	if !ok {
		return fmt.Errorf("reset view %d: %w", id, ErrNoInfoview)
	}

	buf, err := e.surface.CreateBuffer(fmt.Sprintf("infopane://%d", id))
	if err != nil {
		return WrapError(err, "reset view %d", id)
	}

	oldBuf := v.info.buf
	oldID := v.info.id
	info := e.store.ReplaceInfo(v, buf)

	if v.open {
		if err := e.surface.CloseWindow(v.win); err != nil {
			return WrapError(err, "reset view %d", id)
		}
		win, err := e.surface.CreateWindow(buf)
		if err != nil {
			return WrapError(err, "reset view %d", id)
		}
		v.win = win
	}

	if err := e.surface.DeleteBuffer(oldBuf); err != nil {
		return WrapError(err, "reset view %d", id)
	}

	e.logger.Debug("reset infoview %d: info %d -> %d (buffer %d)", id, oldID, info.id, buf)
	return e.renderLocked(info)
}

// SetPosition records the tracked source position used by debounced
// refreshes.
func (e *Engine) SetPosition(pos provider.Position) {
	e.mu.Lock()
	e.pos = pos
	e.hasPos = true
	e.mu.Unlock()
}

// Refresh recomputes the primary Infoview's content for the given source
// position. See RefreshView.
func (e *Engine) Refresh(ctx context.Context, pos provider.Position) error {
	e.mu.Lock()
	id := e.primary
	e.mu.Unlock()
	if id == 0 {
		return ErrNoInfoview
	}
	return e.RefreshView(ctx, id, pos)
}

// RefreshView queries the content provider for the position and, if the
// result differs from the Info's current message, updates the message and
// re-renders the content buffer. It may be called regardless of open state;
// content updates while hidden.
//
// Each call bumps the Info's generation before querying. A response whose
// captured generation was superseded by a later call (or by teardown) is
// discarded, so a slow stale response never clobbers a fresh one.
func (e *Engine) RefreshView(ctx context.Context, id ViewID, pos provider.Position) error {
	e.mu.Lock()
	v, ok := e.store.View(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("refresh view %d: %w", id, ErrNoInfoview)
	}
	info := v.info
	info.gen++
	gen := info.gen
	e.pos = pos
	e.hasPos = true
	e.mu.Unlock()

	qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	content, err := e.content.FetchContent(qctx, pos)
	if err != nil {
		// Best-effort collaborator: prior content is retained.
		e.logger.Warn("content query for info %d failed: %v", info.id, err)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if info.dead || info.gen != gen {
		e.logger.Debug("discarding stale content for info %d (gen %d)", info.id, gen)
		return nil
	}
	if content == "" || content == info.Msg() {
		return nil
	}

	info.SetMsg(content)
	return e.renderLocked(info)
}

// Redraw re-renders the primary Infoview's buffer from its current
// message without querying the provider, picking up progress changes.
func (e *Engine) Redraw() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.primary == 0 {
		return ErrNoInfoview
	}
	v, ok := e.store.View(e.primary)
	if !ok {
		return ErrNoInfoview
	}
	return e.renderLocked(v.info)
}

// NotifyServerEvent signals that the server pushed an update relevant to
// the tracked document. Bursts collapse into a single refresh of the
// primary Infoview at the tracked position after a quiet period.
func (e *Engine) NotifyServerEvent() {
	e.debounce.Call()
}

// RefreshPending reports whether a debounced refresh is scheduled.
func (e *Engine) RefreshPending() bool {
	return e.debounce.IsPending()
}

// Shutdown cancels any pending debounced refresh.
func (e *Engine) Shutdown() {
	e.debounce.Cancel()
}

func (e *Engine) debouncedRefresh() {
	e.mu.Lock()
	id := e.primary
	pos := e.pos
	ok := e.hasPos && id != 0
	e.mu.Unlock()

	if !ok {
		return
	}
	if err := e.RefreshView(context.Background(), id, pos); err != nil {
		e.logger.Warn("debounced refresh failed: %v", err)
	}
}

// newViewLocked mints a fresh buffer, Infoview, and Info. Caller holds e.mu.
func (e *Engine) newViewLocked() (*Infoview, error) {
	id := e.store.PeekViewID()
	buf, err := e.surface.CreateBuffer(fmt.Sprintf("infopane://%d", id))
	if err != nil {
		return nil, WrapError(err, "create info buffer")
	}

	v := e.store.NewInfoview(buf)
	if err := e.renderLocked(v.info); err != nil {
		return nil, err
	}

	e.logger.Debug("created infoview %d (info %d, buffer %d)", v.id, v.info.id, buf)
	return v, nil
}

// renderLocked lays out an Info's message into its buffer. Caller holds e.mu.
func (e *Engine) renderLocked(info *Info) error {
	text := info.Msg()
	if e.formatter != nil && text != "" {
		text = e.formatter(text)
	}

	busy := false
	if e.progress != nil && e.hasPos {
		busy = e.progress.Busy(e.pos.URI)
	}

	lines := format.Render(text, busy)
	return WrapError(e.surface.SetBufferLines(info.buf, lines), "render info %d", info.id)
}

// Package provider defines the narrow language-server surface the infoview
// engine consumes: a content query for a source position and a progress feed.
//
// The language-server client and transport live elsewhere; this package only
// shapes their responses. Both are best-effort: a missing or late response
// leaves prior panel content unchanged.
package provider

import (
	"context"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Position identifies a location in a source document.
type Position struct {
	URI uri.URI
	Pos protocol.Position
}

// At builds a Position from a file path and zero-based coordinates.
func At(path string, line, character uint32) Position {
	return Position{
		URI: uri.File(path),
		Pos: protocol.Position{Line: line, Character: character},
	}
}

// ContentProvider resolves panel content for a source position.
//
// An empty string with a nil error means the server has nothing to show
// there. Context cancellation and deadline errors are returned as-is.
type ContentProvider interface {
	FetchContent(ctx context.Context, pos Position) (string, error)
}

// Func adapts a plain function to ContentProvider.
type Func func(ctx context.Context, pos Position) (string, error)

// FetchContent calls f.
func (f Func) FetchContent(ctx context.Context, pos Position) (string, error) {
	return f(ctx, pos)
}

// Static is a ContentProvider backed by a settable position->content map,
// for tests and the demo binary. An optional delay simulates a slow server.
//
// Static is safe for concurrent use.
type Static struct {
	mu       sync.Mutex
	contents map[Position]string
	fallback string
	delay    time.Duration
}

// NewStatic creates an empty static provider.
func NewStatic() *Static {
	return &Static{contents: make(map[Position]string)}
}

// Set assigns the content returned for a position.
func (s *Static) Set(pos Position, content string) {
	s.mu.Lock()
	s.contents[pos] = content
	s.mu.Unlock()
}

// SetFallback assigns the content returned for positions with no entry.
func (s *Static) SetFallback(content string) {
	s.mu.Lock()
	s.fallback = content
	s.mu.Unlock()
}

// SetDelay makes every fetch wait before answering.
func (s *Static) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// FetchContent returns the configured content for pos, honoring the delay
// and the context deadline.
func (s *Static) FetchContent(ctx context.Context, pos Position) (string, error) {
	s.mu.Lock()
	delay := s.delay
	content, ok := s.contents[pos]
	if !ok {
		content = s.fallback
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return content, nil
}

// Verify interface satisfaction.
var (
	_ ContentProvider = Func(nil)
	_ ContentProvider = (*Static)(nil)
)

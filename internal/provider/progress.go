package provider

import (
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.lsp.dev/uri"
)

// ProgressTracker maintains the set of documents the server is still
// processing, fed by raw file-progress notifications.
//
// A notification carries the document URI and an array of ranges still being
// processed; an empty array means the server finished that document.
//
// ProgressTracker is safe for concurrent use.
type ProgressTracker struct {
	mu   sync.Mutex
	busy map[uri.URI]int // uri -> outstanding range count
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{busy: make(map[uri.URI]int)}
}

// ApplyNotification merges one raw progress notification into the busy set.
// Malformed payloads are ignored; the feed is best-effort.
func (p *ProgressTracker) ApplyNotification(raw []byte) {
	root := gjson.ParseBytes(raw)

	target := root.Get("textDocument.uri")
	if target.Type != gjson.String {
		return
	}
	docURI := uri.URI(target.String())

	processing := root.Get("processing")
	if !processing.IsArray() {
		return
	}
	count := len(processing.Array())

	p.mu.Lock()
	if count == 0 {
		delete(p.busy, docURI)
	} else {
		p.busy[docURI] = count
	}
	p.mu.Unlock()
}

// Busy reports whether the server is still processing the document.
func (p *ProgressTracker) Busy(docURI uri.URI) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy[docURI] > 0
}

// BusyCount returns the number of documents still being processed.
func (p *ProgressTracker) BusyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.busy)
}

// FileProgressNotification builds a raw progress notification payload for
// the given document with pending ranges covering the given line spans.
// Used by tests and the demo to feed ApplyNotification.
func FileProgressNotification(docURI uri.URI, pendingLines ...[2]uint32) []byte {
	raw, _ := sjson.Set("{}", "textDocument.uri", string(docURI))
	raw, _ = sjson.SetRaw(raw, "processing", "[]")
	for i, span := range pendingLines {
		prefix := fmt.Sprintf("processing.%d.range", i)
		raw, _ = sjson.Set(raw, prefix+".start.line", span[0])
		raw, _ = sjson.Set(raw, prefix+".end.line", span[1])
	}
	return []byte(raw)
}

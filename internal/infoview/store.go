package infoview

import (
	"sort"
	"sync"

	"github.com/dshills/infopane/internal/editor"
)

// Store owns all live Infoview and Info instances, keyed by ID.
//
// It replaces free-standing global registries: the engine holds the Store
// and passes it to the verification oracle, so lookups stay O(1) without
// hidden process-wide state. ID counters only ever increase; a destroyed
// instance's ID is never reissued.
//
// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	views map[ViewID]*Infoview
	infos map[InfoID]*Info

	nextView ViewID
	nextInfo InfoID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		views:    make(map[ViewID]*Infoview),
		infos:    make(map[InfoID]*Info),
		nextView: 1,
		nextInfo: 1,
	}
}

// PeekViewID returns the ID the next NewInfoview call will assign.
func (s *Store) PeekViewID() ViewID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextView
}

// NewInfoview mints a new closed Infoview together with its Info, bound to
// the given content buffer. The Info exists before the Infoview is
// observable, so an Infoview never has a nil Info.
func (s *Store) NewInfoview(buf editor.Handle) *Infoview {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := &Info{id: s.nextInfo, buf: buf}
	s.nextInfo++
	s.infos[info.id] = info

	v := &Infoview{id: s.nextView, info: info}
	s.nextView++
	s.views[v.id] = v

	return v
}

// ReplaceInfo discards the Infoview's current Info and mints a new one
// bound to a fresh buffer. The old Info is marked dead so in-flight
// content responses for it are dropped.
func (s *Store) ReplaceInfo(v *Infoview, buf editor.Handle) *Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := v.info
	old.dead = true
	old.gen++
	delete(s.infos, old.id)

	info := &Info{id: s.nextInfo, buf: buf}
	s.nextInfo++
	s.infos[info.id] = info
	v.info = info

	return info
}

// RemoveView destroys an Infoview and its owned Info. Their IDs are never
// reissued. Returns false if the ID is not live.
func (s *Store) RemoveView(id ViewID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok {
		return false
	}
	v.info.dead = true
	v.info.gen++
	delete(s.infos, v.info.id)
	delete(s.views, id)
	return true
}

// View returns the live Infoview with the given ID.
func (s *Store) View(id ViewID) (*Infoview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	return v, ok
}

// Views returns all live Infoviews in ascending ID order.
func (s *Store) Views() []*Infoview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Infoview, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// InfoByID returns the live Info with the given ID.
func (s *Store) InfoByID(id InfoID) (*Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.infos[id]
	return info, ok
}

// Infos returns all live Infos in ascending ID order.
func (s *Store) Infos() []*Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Info, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

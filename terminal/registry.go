package terminal

import "sync"

// Registry is the authoritative map from terminal id to handle, plus a
// secondary index grouping terminal ids by session for bulk cleanup. All
// operations are in-memory map work; none block. Each handle's mutable
// state is guarded independently; the registry only serializes the maps.
type Registry struct {
	mu       sync.RWMutex
	handles  map[string]*Handle
	sessions map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles:  make(map[string]*Handle),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Insert registers a handle and records it in its session's index.
func (r *Registry) Insert(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles[h.ID] = h
	set, ok := r.sessions[h.SessionID]
	if !ok {
		set = make(map[string]struct{})
		r.sessions[h.SessionID] = set
	}
	set[h.ID] = struct{}{}
}

// Get looks up a handle by terminal id.
func (r *Registry) Get(terminalID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[terminalID]
	return h, ok
}

// Remove deletes a handle and its session index entry, pruning the session
// set when it empties. Returns the removed handle, or false if unknown.
func (r *Registry) Remove(terminalID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[terminalID]
	if !ok {
		return nil, false
	}
	delete(r.handles, terminalID)

	if set, ok := r.sessions[h.SessionID]; ok {
		delete(set, terminalID)
		if len(set) == 0 {
			delete(r.sessions, h.SessionID)
		}
	}
	return h, true
}

// BySession returns the terminal ids currently registered under a session.
func (r *Registry) BySession(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

package events

import "sync"

// Registry is the set of live subscribers. The lock only guards
// membership; nobody holds it while writing to a stream.
type Registry struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[*Subscriber]struct{})}
}

func (r *Registry) Add(s *Subscriber) {
	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()
}

// Remove deregisters s and reports whether it was present. Removing an
// absent subscriber is a no-op.
func (r *Registry) Remove(s *Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[s]; !ok {
		return false
	}
	delete(r.subs, s)
	return true
}

// Snapshot copies the current membership so callers can iterate while
// others add and remove.
func (r *Registry) Snapshot() []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Subscriber, 0, len(r.subs))
	for s := range r.subs {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

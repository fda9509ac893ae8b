package player

import "sync"

// Registry maps guild IDs to their coordinators. It is the only
// process-wide mutable state in the player core; every access is safe
// under arbitrary concurrent callers.
type Registry struct {
	mu           sync.Mutex
	coordinators map[string]*Coordinator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{coordinators: make(map[string]*Coordinator)}
}

// GetOrCreate returns the guild's coordinator, constructing and
// registering one via build when absent. Lookup and construction are
// atomic: two concurrent callers observe the same coordinator.
func (r *Registry) GetOrCreate(guildID string, build func() *Coordinator) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.coordinators[guildID]; ok {
		return c
	}
	c := build()
	c.onExit = func() { r.Remove(guildID) }
	r.coordinators[guildID] = c
	return c
}

// Get returns the coordinator for a guild, if one is registered.
func (r *Registry) Get(guildID string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coordinators[guildID]
	return c, ok
}

// Remove deregisters a guild's coordinator. Safe to call when absent.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coordinators, guildID)
}

// Count returns the number of registered coordinators.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.coordinators)
}

// Shutdown stops every registered coordinator. Used on process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	list := make([]*Coordinator, 0, len(r.coordinators))
	for _, c := range r.coordinators {
		list = append(list, c)
	}
	r.mu.Unlock()

	for _, c := range list {
		c.Stop()
	}
}

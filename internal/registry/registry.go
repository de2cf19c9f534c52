// Package registry admits at most one live widget per key for the whole
// process. Registration is scoped: Acquire hands back the release func.
package registry

import (
	"errors"
	"sync"
)

var ErrActive = errors.New("instance already active")

type Registry struct {
	mu   sync.Mutex
	held map[string]uint64
	next uint64
}

func New() *Registry { return &Registry{held: make(map[string]uint64)} }

// Default is the process-wide registry.
var Default = New()

// Acquire registers key. It fails with ErrActive while another holder has
// it. The returned release is idempotent.
func (r *Registry) Acquire(key string) (release func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.held[key]; ok {
		metricRejected.Inc()
		return nil, ErrActive
	}
	r.next++
	token := r.next
	r.held[key] = token
	metricActive.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.held[key] == token {
				delete(r.held, key)
				metricActive.Dec()
			}
		})
	}, nil
}

func (r *Registry) Active(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

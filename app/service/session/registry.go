package session

import (
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Registry owns the live sessions, keyed by ID. The mutex guards only the
// map: session internals are guarded by each session's own lock and never
// touched under the registry lock by callers.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(_ *do.Injector) (*Registry, error) {
	return &Registry{
		sessions: make(map[string]*Session),
	}, nil
}

func (r *Registry) Create() *Session {
	sess := newSession()

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	return sess
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}

	delete(r.sessions, id)
	return true
}

// List returns all sessions, newest first.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	all := pie.Values(r.sessions)
	r.mu.Unlock()

	return pie.SortUsing(all, func(a, b *Session) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Package session holds the identity of the current run and persists it
// between CLI invocations.
package session

import (
	"sync"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Listener is told about every Set, including no-op ones.
type Listener func(prev, next *model.Session)

// Holder is the single source of truth for "who is logged in" and whether the
// remote backend is in use. Safe for concurrent use.
type Holder struct {
	mu      sync.Mutex
	current *model.Session
	remote  bool
	subs    map[int]Listener
	nextSub int
}

// NewHolder returns a logged-out holder.
func NewHolder(remote bool) *Holder {
	return &Holder{remote: remote, subs: make(map[int]Listener)}
}

// Get returns a copy of the current session, nil when logged out.
func (h *Holder) Get() *model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.current)
}

// UserID is the current user's id, empty when logged out.
func (h *Holder) UserID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return ""
	}
	return h.current.UserID
}

// Set replaces the session and notifies every subscriber synchronously, in
// subscription order. The value is not validated.
func (h *Holder) Set(s *model.Session) {
	h.mu.Lock()
	prev := h.current
	h.current = clone(s)
	next := clone(h.current)
	subs := h.listeners()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(clone(prev), clone(next))
	}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Holder) Subscribe(fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// RemoteEnabled reports whether calls should go to the remote backend.
func (h *Holder) RemoteEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remote
}

// SetRemoteEnabled switches between the remote and the mock backend.
func (h *Holder) SetRemoteEnabled(on bool) {
	h.mu.Lock()
	h.remote = on
	h.mu.Unlock()
}

// listeners returns the subscribers in registration order. Caller holds h.mu.
func (h *Holder) listeners() []Listener {
	out := make([]Listener, 0, len(h.subs))
	for id := 0; id < h.nextSub; id++ {
		if fn, ok := h.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func clone(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

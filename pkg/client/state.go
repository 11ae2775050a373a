package client

import "sync"

// State is the client's application state: who is signed in, whether an
// account operation is in flight, and the last failure. It is safe for
// concurrent use.
type State struct {
	mu          sync.RWMutex
	currentUser *User
	loading     bool
	err         error
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	CurrentUser *User
	Loading     bool
	Err         error
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var u *User
	if s.currentUser != nil {
		cp := *s.currentUser
		u = &cp
	}
	return Snapshot{CurrentUser: u, Loading: s.loading, Err: s.err}
}

// CurrentUser returns the signed-in user, or nil.
func (s *State) CurrentUser() *User {
	return s.Snapshot().CurrentUser
}

func (s *State) start() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *State) succeed(u *User) {
	s.mu.Lock()
	s.currentUser = u
	s.loading = false
	s.err = nil
	s.mu.Unlock()
}

func (s *State) fail(err error) {
	s.mu.Lock()
	s.loading = false
	s.err = err
	s.mu.Unlock()
}

package session

import "sync"

// Store is the single owner of a wizard's State.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore() *Store { return &Store{} }

// Dispatch applies the actions in order as one atomic update and returns a
// snapshot of the resulting state.
func (s *Store) Dispatch(actions ...Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.state = a(s.state)
	}
	return s.state.Clone()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

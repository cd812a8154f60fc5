package state

import "sync"

// Status is the single status/error slot shown to the user. Setting one clears the other.
type Status struct {
	mu      sync.RWMutex
	status  string
	err     string
	changes *listeners
}

// NewStatus returns an empty Status.
func NewStatus() *Status {
	return &Status{}
}

// Get returns the current status and error messages.
func (s *Status) Get() (status, err string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.err
}

// Clear empties the slot.
func (s *Status) Clear() {
	s.set("", "")
}

// SetStatus shows an informational message.
func (s *Status) SetStatus(status string) {
	s.set(status, "")
}

// SetError shows an error message.
func (s *Status) SetError(err string) {
	s.set("", err)
}

func (s *Status) set(status, err string) {
	s.mu.Lock()
	changed := s.status != status || s.err != err
	s.status, s.err = status, err
	s.mu.Unlock()
	if changed {
		s.changes.notify()
	}
}

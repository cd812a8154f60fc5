package state

import (
	"sync"

	"github.com/scylladb/go-set/strset"

	"github.com/minddock/minddock/internal/types"
)

// listeners fans change notifications out to subscribers.
type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) notify() {
	if l == nil {
		return
	}
	l.mu.Lock()
	fns := append([]func(){}, l.fns...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ticket stamps a request with the state it was issued against.
type ticket struct {
	userID     string
	generation uint64
	memoryID   string
}

// Store holds the selection and transcript. Readers are safe from any goroutine.
// Empty ids mean "none".
type Store struct {
	mu sync.RWMutex

	users    []*types.User
	userID   string
	memories []*types.Memory
	memoryID string
	selected *types.Memory

	// generation moves on every user switch and every list refresh.
	generation uint64
	refreshing int

	transcript []*types.ChatMessage
	// session moves whenever the transcript is reset.
	session uint64
	draft   string

	changes *listeners
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{changes: &listeners{}}
}

// OnChange registers fn to run after every write.
func (s *Store) OnChange(fn func()) {
	s.changes.add(fn)
}

func (s *Store) Users() []*types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.User(nil), s.users...)
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Store) MemoryID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryID
}

// Memories returns the loaded list in backend order.
func (s *Store) Memories() []*types.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.Memory(nil), s.memories...)
}

// Selected returns the detail of the selected memory. Its id may lag MemoryID
// while a detail fetch is in flight or after one failed.
func (s *Store) Selected() *types.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Transcript returns a copy of the chat transcript.
func (s *Store) Transcript() []*types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.ChatMessage(nil), s.transcript...)
}

func (s *Store) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// SetDraft stores the chat input as typed by the user.
func (s *Store) SetDraft(draft string) {
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()
	s.changes.notify()
}

// Stable reports whether no list refresh is in flight.
func (s *Store) Stable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing == 0
}

// findMemory looks id up in the loaded list and the selected detail.
func (s *Store) findMemory(id string) *types.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected != nil && s.selected.ID == id {
		return s.selected
	}
	for _, memory := range s.memories {
		if memory.ID == id {
			return memory
		}
	}
	return nil
}

func (s *Store) setUsers(users []*types.User) {
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	s.changes.notify()
}

// switchUser makes userID active and resets the transcript. Switching to a
// different user, or to none, drops the memory list and selection.
func (s *Store) switchUser(userID string) {
	s.mu.Lock()
	if userID == "" || userID != s.userID {
		s.memories = nil
		s.memoryID = ""
		s.selected = nil
	}
	s.userID = userID
	s.generation++
	s.transcript = nil
	s.session++
	s.mu.Unlock()
	s.changes.notify()
}

// beginRefresh issues a refresh ticket for userID, superseding older refreshes.
func (s *Store) beginRefresh(userID string) (ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == "" || userID != s.userID {
		return ticket{}, errStale
	}
	s.generation++
	s.refreshing++
	return ticket{userID: userID, generation: s.generation}, nil
}

func (s *Store) endRefresh() {
	s.mu.Lock()
	s.refreshing--
	s.mu.Unlock()
	s.changes.notify()
}

// detailTicket stamps a detail fetch for memoryID against the current generation.
func (s *Store) detailTicket(memoryID string) ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ticket{userID: s.userID, generation: s.generation, memoryID: memoryID}
}

func (s *Store) currentLocked(t ticket) bool {
	return t.userID == s.userID && t.generation == s.generation
}

// current reports whether t still matches the Store.
func (s *Store) current(t ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t.memoryID != "" && t.memoryID != s.memoryID {
		return false
	}
	return s.currentLocked(t)
}

// applyList replaces the list with the memories owned by the ticket's user and
// resolves the selection: focusID, else the previous selection, else the first
// memory. It returns the resolved id, empty when the list is empty.
func (s *Store) applyList(t ticket, memories []*types.Memory, focusID string) (string, error) {
	s.mu.Lock()
	if !s.currentLocked(t) {
		s.mu.Unlock()
		return "", errStale
	}

	owned := make([]*types.Memory, 0, len(memories))
	ids := strset.NewWithSize(len(memories))
	for _, memory := range memories {
		if memory == nil || memory.OwnerID != t.userID {
			continue
		}
		owned = append(owned, memory)
		ids.Add(memory.ID)
	}
	s.memories = owned

	var candidate string
	switch {
	case len(owned) == 0:
		s.selected = nil
	case focusID != "" && ids.Has(focusID):
		candidate = focusID
	case s.memoryID != "" && ids.Has(s.memoryID):
		candidate = s.memoryID
	default:
		candidate = owned[0].ID
	}
	s.memoryID = candidate
	s.mu.Unlock()
	s.changes.notify()
	return candidate, nil
}

// selectMemory points the selection at memoryID, which must be in the loaded list.
func (s *Store) selectMemory(memoryID string) (ticket, error) {
	s.mu.Lock()
	found := false
	for _, memory := range s.memories {
		if memory.ID == memoryID {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ticket{}, ErrUnknownMemory
	}
	s.memoryID = memoryID
	t := ticket{userID: s.userID, generation: s.generation, memoryID: memoryID}
	s.mu.Unlock()
	s.changes.notify()
	return t, nil
}

// applyDetail replaces the selected detail if the ticket still targets the selection.
func (s *Store) applyDetail(t ticket, memory *types.Memory) error {
	s.mu.Lock()
	if !s.currentLocked(t) || t.memoryID != s.memoryID || memory == nil || memory.ID != t.memoryID {
		s.mu.Unlock()
		return errStale
	}
	s.selected = memory
	s.mu.Unlock()
	s.changes.notify()
	return nil
}

// beginTurn appends a user turn to the transcript and clears the draft. It
// returns the transcript before the turn, the one after, and the session stamp.
func (s *Store) beginTurn(message *types.ChatMessage) (prior, history []*types.ChatMessage, session uint64) {
	s.mu.Lock()
	prior = append([]*types.ChatMessage(nil), s.transcript...)
	history = append(append([]*types.ChatMessage(nil), prior...), message)
	s.transcript = history
	s.draft = ""
	session = s.session
	s.mu.Unlock()
	s.changes.notify()
	return prior, history, session
}

// publishTranscript replaces the transcript unless it was reset since session.
func (s *Store) publishTranscript(session uint64, transcript []*types.ChatMessage) error {
	s.mu.Lock()
	if session != s.session {
		s.mu.Unlock()
		return errStale
	}
	s.transcript = transcript
	s.mu.Unlock()
	s.changes.notify()
	return nil
}

// restoreDraft puts draft back unless the user typed something new meanwhile.
func (s *Store) restoreDraft(session uint64, draft string) {
	s.mu.Lock()
	if session != s.session || s.draft != "" {
		s.mu.Unlock()
		return
	}
	s.draft = draft
	s.mu.Unlock()
	s.changes.notify()
}

func (s *Store) resetTranscript() {
	s.mu.Lock()
	s.transcript = nil
	s.session++
	s.mu.Unlock()
	s.changes.notify()
}

package state

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/minddock/minddock/internal/debug"
	"github.com/minddock/minddock/internal/types"
)

// WorkspaceOptions configures a Workspace.
type WorkspaceOptions struct {
	Chat ChatOptions
	// DefaultUser is selected by LoadUsers when listed. Empty selects the first user.
	DefaultUser string
}

// Workspace wires the stores and coordinators over one backend.
type Workspace struct {
	Synchronizer *Synchronizer
	Chat         *ChatSession
	Mutations    *Mutations

	users       UserLister
	store       *Store
	status      *Status
	defaultUser string
	log         zerolog.Logger
}

// NewWorkspace instantiates and returns a Workspace.
func NewWorkspace(backend Backend, opts WorkspaceOptions) *Workspace {
	store := NewStore()
	status := NewStatus()
	status.changes = store.changes
	synchronizer := NewSynchronizer(backend, store, status)
	return &Workspace{
		Synchronizer: synchronizer,
		Chat:         NewChatSession(backend, store, status, opts.Chat),
		Mutations:    NewMutations(backend, store, status, synchronizer),
		users:        backend,
		store:        store,
		status:       status,
		defaultUser:  opts.DefaultUser,
		log:          debug.Component("workspace"),
	}
}

// Store returns the read side of the workspace state.
func (w *Workspace) Store() *Store {
	return w.store
}

// Status returns the status slot.
func (w *Workspace) Status() *Status {
	return w.status
}

// OnChange registers fn to run after every state change. fn runs on the
// goroutine that made the change and must not block.
func (w *Workspace) OnChange(fn func()) {
	w.store.OnChange(fn)
}

// LoadUsers lists users and activates the default user, else the first one.
func (w *Workspace) LoadUsers(ctx context.Context) error {
	w.status.Clear()
	users, err := w.users.ListUsers(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("listing users")
		w.status.SetError(MsgLoadUsers)
		return errors.Wrap(err, "listing users")
	}
	w.store.setUsers(users)
	if len(users) == 0 {
		return w.Synchronizer.SetActiveUser(ctx, "")
	}
	userID := users[0].ID
	for _, user := range users {
		if w.defaultUser != "" && (user.ID == w.defaultUser || user.Email == w.defaultUser) {
			userID = user.ID
			break
		}
	}
	return w.Synchronizer.SetActiveUser(ctx, userID)
}

// Snapshot is a consistent-enough copy of the workspace state for rendering.
type Snapshot struct {
	Users          []*types.User
	ActiveUserID   string
	Memories       []*types.Memory
	ActiveMemoryID string
	Selected       *types.Memory
	Transcript     []*types.ChatMessage
	Draft          string
	Status         string
	Error          string
	Stable         bool
	Flows          map[FlowName]FlowState
}

// Snapshot copies the current state.
func (w *Workspace) Snapshot() *Snapshot {
	w.store.mu.RLock()
	snapshot := &Snapshot{
		Users:          append([]*types.User(nil), w.store.users...),
		ActiveUserID:   w.store.userID,
		Memories:       append([]*types.Memory(nil), w.store.memories...),
		ActiveMemoryID: w.store.memoryID,
		Selected:       w.store.selected,
		Transcript:     append([]*types.ChatMessage(nil), w.store.transcript...),
		Draft:          w.store.draft,
		Stable:         w.store.refreshing == 0,
	}
	w.store.mu.RUnlock()

	snapshot.Status, snapshot.Error = w.status.Get()
	snapshot.Flows = map[FlowName]FlowState{FlowChatSend: w.Chat.flow.State()}
	for _, flow := range w.Mutations.Flows() {
		snapshot.Flows[flow.Name()] = flow.State()
	}
	return snapshot
}

// ActiveUser returns the active user, nil if none.
func (s *Snapshot) ActiveUser() *types.User {
	for _, user := range s.Users {
		if user.ID == s.ActiveUserID {
			return user
		}
	}
	return nil
}

// Busy reports whether flow is pending.
func (s *Snapshot) Busy(flow FlowName) bool {
	return s.Flows[flow] == FlowPending
}

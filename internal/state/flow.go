package state

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrFlowBusy is returned when a flow is resubmitted while still pending.
var ErrFlowBusy = errors.New("operation already in progress")

// FlowState is the lifecycle of one user-triggered flow.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowPending
	FlowError
	FlowSuccess
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowPending:
		return "pending"
	case FlowError:
		return "error"
	case FlowSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// FlowName identifies a flow.
type FlowName string

const (
	FlowCreateMemo FlowName = "create-memo"
	FlowTranscribe FlowName = "transcribe-audio"
	FlowAttachFile FlowName = "attach-file"
	FlowChatSend   FlowName = "chat-send"
)

// Flow is an {idle, pending, error, success} state machine. It stays pending
// while any run it admitted is in flight.
type Flow struct {
	name    FlowName
	mu      sync.Mutex
	state   FlowState
	pending int
	err     error
	changes *listeners
}

func newFlow(name FlowName, changes *listeners) *Flow {
	return &Flow{name: name, changes: changes}
}

// Name of the flow.
func (f *Flow) Name() FlowName {
	return f.name
}

// Begin moves the flow to pending. It fails with ErrFlowBusy if already pending.
func (f *Flow) Begin() error {
	f.mu.Lock()
	if f.pending > 0 {
		f.mu.Unlock()
		return ErrFlowBusy
	}
	f.enterLocked()
	f.mu.Unlock()
	f.changes.notify()
	return nil
}

// enter moves the flow to pending even if it already is.
func (f *Flow) enter() {
	f.mu.Lock()
	f.enterLocked()
	f.mu.Unlock()
	f.changes.notify()
}

func (f *Flow) enterLocked() {
	f.pending++
	f.state = FlowPending
	f.err = nil
}

// Succeed ends one pending run successfully.
func (f *Flow) Succeed() {
	f.finish(FlowSuccess, nil)
}

// Fail ends one pending run with err.
func (f *Flow) Fail(err error) {
	f.finish(FlowError, err)
}

func (f *Flow) finish(state FlowState, err error) {
	f.mu.Lock()
	if f.pending > 0 {
		f.pending--
	}
	if f.pending == 0 {
		f.state = state
		f.err = err
	}
	f.mu.Unlock()
	f.changes.notify()
}

// State returns the current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether the flow is pending.
func (f *Flow) Busy() bool {
	return f.State() == FlowPending
}

// Err returns the error of the last failed run.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

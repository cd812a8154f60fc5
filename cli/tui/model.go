package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.dalton.dog/bubbleup"

	"github.com/minddock/minddock/cli/tui/styles"
	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/debug"
	"github.com/minddock/minddock/internal/history"
	"github.com/minddock/minddock/internal/markdown"
	"github.com/minddock/minddock/internal/state"
)

const historyCapacity = 100

// FocusedComponent is the pane receiving key presses.
type FocusedComponent int

const (
	FocusTextarea FocusedComponent = iota
	FocusMemories
	FocusTranscript
)

func (f FocusedComponent) next() FocusedComponent {
	return (f + 1) % 3
}

// stateChangedMsg is sent whenever the workspace reports a change.
type stateChangedMsg struct{}

// opDoneMsg is sent when a workspace operation returns.
type opDoneMsg struct {
	op    string
	input string
	err   error
}

// Model represents the Bubble Tea model for the workspace.
type Model struct {
	// Core dependencies
	ctx       context.Context
	config    *configuration.Config
	workspace *state.Workspace
	changes   chan struct{}

	// Last rendered state.
	snapshot *state.Snapshot

	// UI components
	textarea   textarea.Model
	detail     viewport.Model
	transcript viewport.Model
	spinner    spinner.Model
	renderer   *markdown.Renderer

	// UI state
	width         int
	height        int
	listHeight    int
	ready         bool
	quitting      bool
	windowFocused bool
	focused       FocusedComponent
	cursor        int

	// Alert notifications.
	alert bubbleup.AlertModel

	log zerolog.Logger

	// sending is set from submit until the send's opDoneMsg arrives.
	sending bool

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates a new workspace model.
func New(ctx context.Context, config *configuration.Config, workspace *state.Workspace) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Ask about your memories, or /help for commands... (Ctrl+J to send, Tab to switch pane, Ctrl+C to quit)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, errors.Wrap(err, "creating markdown renderer")
	}

	m := &Model{
		ctx:           ctx,
		config:        config,
		workspace:     workspace,
		changes:       make(chan struct{}, 1),
		textarea:      ta,
		spinner:       sp,
		renderer:      renderer,
		alert:         *bubbleup.NewAlertModel(30, true, 2),
		history:       history.New(historyCapacity),
		windowFocused: true,
		focused:       FocusTextarea,
		log:           debug.Component("tui"),
	}
	workspace.OnChange(m.notify)
	m.snapshot = workspace.Snapshot()
	return m, nil
}

// notify coalesces change notifications. It never blocks the notifying goroutine.
func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// waitForChange blocks until the workspace changes.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return stateChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
		m.waitForChange(),
		m.loadUsers(),
	)
}

// busy reports whether any flow is pending or a refresh is in flight.
func (m *Model) busy() bool {
	if !m.snapshot.Stable {
		return true
	}
	for _, flowState := range m.snapshot.Flows {
		if flowState == state.FlowPending {
			return true
		}
	}
	return false
}

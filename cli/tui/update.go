package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/minddock/minddock/internal/state"
	"github.com/minddock/minddock/internal/types"
)

type KeyMapSession struct {
	CycleFocus key.Binding
	Quit       key.Binding
}

type KeyMapMemories struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	PrevUser key.Binding
	NextUser key.Binding
	Refresh  key.Binding
	Copy     key.Binding
}

type KeyMapTranscript struct {
	ScrollUp   key.Binding
	ScrollDown key.Binding
	ToTop      key.Binding
	ToBottom   key.Binding
	Copy       key.Binding
}

type InputKeyMap struct {
	Submit               key.Binding
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
}

var keyMapSession = KeyMapSession{
	CycleFocus: key.NewBinding(
		key.WithKeys("tab"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

var keyMapMemories = KeyMapMemories{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
	),
	PrevUser: key.NewBinding(
		key.WithKeys("["),
	),
	NextUser: key.NewBinding(
		key.WithKeys("]"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
	),
	Copy: key.NewBinding(
		key.WithKeys("alt+w"),
	),
}

var keyMapTranscript = KeyMapTranscript{
	ScrollUp: key.NewBinding(
		key.WithKeys("up", "k", "ctrl+p"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down", "j", "ctrl+n"),
	),
	ToTop: key.NewBinding(
		key.WithKeys("alt+<", "g"),
	),
	ToBottom: key.NewBinding(
		key.WithKeys("alt+>", "G"),
	),
	Copy: key.NewBinding(
		key.WithKeys("alt+w"),
	),
}

var inputKeyMap = InputKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("ctrl+j"),
	),
	PreviousHistoryEntry: key.NewBinding(
		key.WithKeys("alt+p"),
	),
	NextHistoryEntry: key.NewBinding(
		key.WithKeys("alt+n"),
	),
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	switch msg.(type) {
	case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
	default:
		m.log.Debug().Str("msg_type", fmt.Sprintf("%T", msg)).Int("focus", int(m.focused)).Msg("update")
	}

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.windowFocused = true
		if m.focused == FocusTextarea {
			m.textarea.Focus()
			cmds = append(cmds, textarea.Blink)
		}
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case stateChangedMsg:
		m.syncSnapshot()
		cmds = append(cmds, m.waitForChange())
		return m, tea.Batch(cmds...)

	case opDoneMsg:
		if msg.op == string(state.FlowChatSend) {
			m.sending = false
		}
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("op", msg.op).Msg("operation failed")
			// Give a failed slash command back to the user unless they started typing again.
			if msg.input != "" && m.textarea.Value() == "" {
				m.setInput(msg.input)
			}
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snapshot.Busy(state.FlowChatSend) {
			m.refreshTranscript()
		}
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if key.Matches(msg, keyMapSession.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, keyMapSession.CycleFocus) {
			m.cycleFocus()
			if m.focused == FocusTextarea {
				cmds = append(cmds, textarea.Blink)
			}
			return m, tea.Batch(cmds...)
		}
		switch m.focused {
		case FocusMemories:
			cmds = append(cmds, m.updateMemories(msg))
			return m, tea.Batch(cmds...)
		case FocusTranscript:
			cmds = append(cmds, m.updateTranscript(msg))
			return m, tea.Batch(cmds...)
		}
		if cmd, handled := m.updateInput(msg); handled {
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		}
	}

	if m.focused == FocusTextarea {
		before := m.textarea.Value()
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.textarea.Value(); after != before {
			m.workspace.Store().SetDraft(after)
			m.adjustTextareaHeight()
		}
	}

	return m, tea.Batch(cmds...)
}

// syncSnapshot re-reads the workspace and refreshes the panes.
func (m *Model) syncSnapshot() {
	previous := m.snapshot
	m.snapshot = m.workspace.Snapshot()

	if m.snapshot.ActiveMemoryID != previous.ActiveMemoryID || m.snapshot.ActiveUserID != previous.ActiveUserID {
		m.cursor = 0
		for i, memory := range m.snapshot.Memories {
			if memory.ID == m.snapshot.ActiveMemoryID {
				m.cursor = i
				break
			}
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.snapshot.Memories)-1))

	if m.snapshot.Draft != m.textarea.Value() {
		m.textarea.SetValue(m.snapshot.Draft)
		m.adjustTextareaHeight()
	}
	m.refreshDetail()
	m.refreshTranscript()
}

func (m *Model) cycleFocus() {
	m.focused = m.focused.next()
	if m.focused == FocusTextarea {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// setInput replaces the textarea content and the store draft.
func (m *Model) setInput(value string) {
	m.textarea.SetValue(value)
	m.workspace.Store().SetDraft(value)
	m.adjustTextareaHeight()
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, inputKeyMap.Submit):
		return m.submit(), true

	case key.Matches(msg, inputKeyMap.PreviousHistoryEntry):
		if entry, ok := m.history.Previous(m.textarea.Value()); ok {
			m.setInput(entry)
			m.historyNavigating = true
		}
		return nil, true

	case key.Matches(msg, inputKeyMap.NextHistoryEntry):
		if entry, ok := m.history.Next(); ok {
			m.setInput(entry)
			m.historyNavigating = true
		}
		return nil, true
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete, tea.KeyEnter:
			m.history.Reset()
			m.historyNavigating = false
		}
	}
	return nil, false
}

// submit sends the textarea content as a chat message or runs it as a slash command.
func (m *Model) submit() tea.Cmd {
	input := m.textarea.Value()
	if strings.TrimSpace(input) == "" {
		return nil
	}

	if isCommand(input) {
		c, err := parseCommand(input)
		if err != nil {
			m.workspace.Status().SetError(err.Error())
			return nil
		}
		m.history.Add(input)
		m.historyNavigating = false
		m.setInput("")
		return m.runCommand(c, input)
	}

	if m.sending || m.workspace.Chat.Busy() {
		return nil
	}
	m.sending = true
	m.history.Add(input)
	m.historyNavigating = false
	m.setInput("")
	return m.sendMessage(input)
}

func (m *Model) updateMemories(msg tea.KeyMsg) tea.Cmd {
	memories := m.snapshot.Memories
	switch {
	case key.Matches(msg, keyMapMemories.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keyMapMemories.Down):
		if m.cursor < len(memories)-1 {
			m.cursor++
		}
	case key.Matches(msg, keyMapMemories.Select):
		if m.cursor < len(memories) {
			return m.selectMemory(memories[m.cursor].ID)
		}
	case key.Matches(msg, keyMapMemories.PrevUser):
		return m.cycleUser(-1)
	case key.Matches(msg, keyMapMemories.NextUser):
		return m.cycleUser(1)
	case key.Matches(msg, keyMapMemories.Refresh):
		return m.refreshMemories()
	case key.Matches(msg, keyMapMemories.Copy):
		if selected := m.snapshot.Selected; selected != nil {
			return m.copyToClipboard(selected.Content)
		}
	}
	return nil
}

// cycleUser activates the user delta positions away from the active one.
func (m *Model) cycleUser(delta int) tea.Cmd {
	users := m.snapshot.Users
	if len(users) == 0 {
		return nil
	}
	index := 0
	for i, user := range users {
		if user.ID == m.snapshot.ActiveUserID {
			index = i
			break
		}
	}
	index = (index + delta + len(users)) % len(users)
	return m.setActiveUser(users[index].ID)
}

func (m *Model) updateTranscript(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keyMapTranscript.ScrollUp):
		m.transcript.LineUp(1)
	case key.Matches(msg, keyMapTranscript.ScrollDown):
		m.transcript.LineDown(1)
	case key.Matches(msg, keyMapTranscript.ToTop):
		m.transcript.GotoTop()
	case key.Matches(msg, keyMapTranscript.ToBottom):
		m.transcript.GotoBottom()
	case key.Matches(msg, keyMapTranscript.Copy):
		transcript := m.snapshot.Transcript
		for i := len(transcript) - 1; i >= 0; i-- {
			if transcript[i].Role == types.RoleAssistant {
				return m.copyToClipboard(transcript[i].Content)
			}
		}
	}
	return nil
}

func (m *Model) copyToClipboard(content string) tea.Cmd {
	clipboard.Write(clipboard.FmtText, []byte(content))
	return m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!")
}

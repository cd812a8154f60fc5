package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/minddock/minddock/cli/tui/styles"
	"github.com/minddock/minddock/internal/markdown"
	"github.com/minddock/minddock/internal/state"
	"github.com/minddock/minddock/internal/types"
)

var flowLabels = map[state.FlowName]string{
	state.FlowChatSend:   "Thinking...",
	state.FlowCreateMemo: "Saving memo...",
	state.FlowTranscribe: "Transcribing audio...",
	state.FlowAttachFile: "Uploading attachment...",
}

var focusHelp = map[FocusedComponent]string{
	FocusTextarea:   "ctrl+j send · alt+p/n history · /help commands · tab switch pane",
	FocusMemories:   "↑/↓ move · enter select · [/] switch user · r refresh · alt+w copy · tab switch pane",
	FocusTranscript: "↑/↓ scroll · alt+w copy last reply · tab switch pane",
}

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.paneStyle(FocusMemories).Width(m.listWidth()-styles.PaneStyle.GetHorizontalFrameSize()).Height(m.listHeight).Render(m.renderList()),
		lipgloss.JoinVertical(lipgloss.Left,
			styles.PaneStyle.Render(m.detail.View()),
			m.paneStyle(FocusTranscript).Render(m.transcript.View()),
		),
	))
	b.WriteString("\n")
	b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return m.alert.Render(b.String())
}

func (m *Model) paneStyle(component FocusedComponent) lipgloss.Style {
	if m.focused == component {
		return styles.FocusedPaneStyle
	}
	return styles.PaneStyle
}

func (m *Model) renderTitle() string {
	userName := "no user"
	if user := m.snapshot.ActiveUser(); user != nil {
		userName = user.DisplayName()
	}
	title := fmt.Sprintf(" 🧠 MindDock │ 👤 %s │ 📝 %d memories ", userName, len(m.snapshot.Memories))
	return styles.TitleStyle.Width(m.width).Render(styles.Truncate(title, m.width))
}

func (m *Model) renderList() string {
	if m.snapshot.ActiveUserID == "" {
		return styles.EmptyStyle.Render("No user selected.")
	}
	if len(m.snapshot.Memories) == 0 {
		if !m.snapshot.Stable {
			return styles.EmptyStyle.Render("Loading...")
		}
		return styles.EmptyStyle.Render("No memories yet.")
	}

	textWidth := m.listWidth() - styles.PaneStyle.GetHorizontalFrameSize() - 2
	start, end := m.listWindow()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		memory := m.snapshot.Memories[i]
		marker := "  "
		if m.focused == FocusMemories && i == m.cursor {
			marker = styles.CursorStyle.Render("▸ ")
		}
		title := styles.Truncate(memory.Title, textWidth)
		if memory.ID == m.snapshot.ActiveMemoryID {
			lines = append(lines, marker+styles.ActiveItemStyle.Render(title))
			continue
		}
		lines = append(lines, marker+styles.ListItemStyle.Render(title))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	var line string
	switch {
	case m.pendingLabel() != "":
		line = m.spinner.View() + " " + m.pendingLabel()
	case m.snapshot.Error != "":
		line = styles.ErrorStyle.Render(styles.Truncate(m.snapshot.Error, m.width))
	case m.snapshot.Status != "":
		line = styles.StatusStyle.Render(styles.Truncate(m.snapshot.Status, m.width))
	default:
		line = styles.HelpStyle.Render(styles.Truncate(focusHelp[m.focused], m.width))
	}
	return line
}

// pendingLabel describes the first pending operation, empty when idle.
func (m *Model) pendingLabel() string {
	for _, name := range []state.FlowName{state.FlowCreateMemo, state.FlowTranscribe, state.FlowAttachFile, state.FlowChatSend} {
		if m.snapshot.Busy(name) {
			return flowLabels[name]
		}
	}
	if !m.snapshot.Stable {
		return "Syncing memories..."
	}
	return ""
}

// refreshDetail re-renders the selected memory.
func (m *Model) refreshDetail() {
	if !m.ready {
		return
	}
	selected := m.snapshot.Selected
	if selected == nil {
		m.detail.SetContent(styles.EmptyStyle.Render("No memory selected."))
		return
	}
	owner := m.snapshot.ActiveUser().DisplayName()
	m.detail.SetContent(m.renderer.Render(markdown.MemoryDocument(selected, owner)))
}

// refreshTranscript re-renders the chat transcript, following the bottom if already there.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	wasAtBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.renderTranscript())
	if wasAtBottom {
		m.transcript.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	if len(m.snapshot.Transcript) == 0 {
		return styles.EmptyStyle.Render("No messages yet. Ask something about your memories.")
	}
	userWidth := max(1, m.transcript.Width-styles.UserMessageStyle.GetHorizontalMargins()-styles.UserMessageStyle.GetHorizontalBorderSize())

	var b strings.Builder
	for _, message := range m.snapshot.Transcript {
		b.WriteString(m.renderMessage(message, userWidth))
		b.WriteString("\n")
	}
	if m.snapshot.Busy(state.FlowChatSend) {
		b.WriteString(styles.ThinkingStyle.Render(m.spinner.View() + " Thinking..."))
	}
	return b.String()
}

func (m *Model) renderMessage(message *types.ChatMessage, userWidth int) string {
	if message.Role == types.RoleUser {
		return styles.UserMessageStyle.Width(userWidth).Render(message.Content)
	}
	return styles.AIMessageStyle.Render(strings.TrimRight(m.renderer.Render(markdown.ReplyDocument(message)), "\n"))
}

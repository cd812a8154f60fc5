package tui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/file"
	"github.com/minddock/minddock/internal/state"
	"github.com/minddock/minddock/internal/types"
)

const (
	commandPrefix = "/"
	fieldSep      = "|"
)

const helpText = "/memo title | content | tags · /audio path | title | tags · /attach path · /user id|email|n · /refresh · /reset"

// command is a parsed slash command.
type command struct {
	name   string
	fields []string
}

// field returns the i-th field, empty when absent.
func (c *command) field(i int) string {
	if i < len(c.fields) {
		return c.fields[i]
	}
	return ""
}

var commandArity = map[string]struct{ min, max int }{
	"help":    {0, 0},
	"memo":    {2, 3},
	"audio":   {1, 3},
	"attach":  {1, 1},
	"user":    {1, 1},
	"refresh": {0, 0},
	"reset":   {0, 0},
}

// isCommand reports whether input is a slash command rather than a chat message.
func isCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), commandPrefix)
}

// parseCommand splits "/name a | b | c" into its name and trimmed fields.
func parseCommand(input string) (*command, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), commandPrefix)
	name, rest := input, ""
	if i := strings.IndexFunc(input, unicode.IsSpace); i >= 0 {
		name, rest = input[:i], input[i:]
	}
	arity, ok := commandArity[name]
	if !ok {
		return nil, errors.Errorf("unknown command /%s", name)
	}
	var fields []string
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, field := range strings.Split(rest, fieldSep) {
			fields = append(fields, strings.TrimSpace(field))
		}
	}
	if len(fields) < arity.min || len(fields) > arity.max {
		return nil, errors.Errorf("/%s takes %d to %d fields separated by %q", name, arity.min, arity.max, fieldSep)
	}
	return &command{name: name, fields: fields}, nil
}

// resolveUser finds a user by id, email or 1-based position.
func resolveUser(users []*types.User, ref string) (*types.User, error) {
	for _, user := range users {
		if user.ID == ref || strings.EqualFold(user.Email, ref) {
			return user, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(users) {
		return users[n-1], nil
	}
	return nil, errors.Errorf("unknown user %q", ref)
}

// runCommand returns the command performing c. input is echoed back on failure.
func (m *Model) runCommand(c *command, input string) tea.Cmd {
	switch c.name {
	case "help":
		m.workspace.Status().SetStatus(helpText)
		return nil
	case "reset":
		m.workspace.Chat.Reset()
		return nil
	case "refresh":
		return m.refreshMemories()
	case "user":
		user, err := resolveUser(m.snapshot.Users, c.field(0))
		if err != nil {
			m.workspace.Status().SetError(err.Error())
			return nil
		}
		return m.setActiveUser(user.ID)
	case "memo":
		return m.createMemo(state.MemoForm{Title: c.field(0), Content: c.field(1), Tags: c.field(2)}, input)
	case "audio":
		return m.transcribeAudio(c.field(0), state.AudioForm{Title: c.field(1), Tags: c.field(2)}, input)
	case "attach":
		return m.attachFile(c.field(0), input)
	}
	return nil
}

func (m *Model) loadUsers() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "load-users", err: m.workspace.LoadUsers(m.ctx)}
	}
}

func (m *Model) setActiveUser(userID string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "set-user", err: m.workspace.Synchronizer.SetActiveUser(m.ctx, userID)}
	}
}

func (m *Model) selectMemory(memoryID string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "select-memory", err: m.workspace.Synchronizer.SelectMemory(m.ctx, memoryID)}
	}
}

func (m *Model) refreshMemories() tea.Cmd {
	userID := m.snapshot.ActiveUserID
	if userID == "" {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{op: "refresh", err: m.workspace.Synchronizer.RefreshMemories(m.ctx, userID, "")}
	}
}

func (m *Model) sendMessage(input string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: string(state.FlowChatSend), err: m.workspace.Chat.Send(m.ctx, input)}
	}
}

func (m *Model) createMemo(form state.MemoForm, input string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.workspace.Mutations.CreateMemo(m.ctx, form)
		return opDoneMsg{op: string(state.FlowCreateMemo), input: input, err: err}
	}
}

func (m *Model) transcribeAudio(path string, form state.AudioForm, input string) tea.Cmd {
	return func() tea.Msg {
		upload, err := file.ReadUpload(path)
		if err != nil {
			m.workspace.Status().SetError(fmt.Sprintf("Could not read %s.", path))
			return opDoneMsg{op: string(state.FlowTranscribe), input: input, err: err}
		}
		form.File = upload
		_, err = m.workspace.Mutations.TranscribeAudio(m.ctx, form)
		return opDoneMsg{op: string(state.FlowTranscribe), input: input, err: err}
	}
}

func (m *Model) attachFile(path, input string) tea.Cmd {
	return func() tea.Msg {
		upload, err := file.ReadUpload(path)
		if err != nil {
			m.workspace.Status().SetError(fmt.Sprintf("Could not read %s.", path))
			return opDoneMsg{op: string(state.FlowAttachFile), input: input, err: err}
		}
		_, err = m.workspace.Mutations.AttachFile(m.ctx, state.AttachForm{File: upload})
		return opDoneMsg{op: string(state.FlowAttachFile), input: input, err: err}
	}
}

// Package cli prints to and prompts the terminal for the non-interactive commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

var (
	userInputColor  = color.New(color.FgWhite)
	assistantColor  = color.New(color.FgCyan)
	contextColor    = color.New(color.FgHiYellow)
	titleColor      = color.New(color.FgMagenta, color.Bold)
	separatorColor  = color.New(color.FgHiBlack)
	statusColor     = color.New(color.FgGreen)
	errorColor      = color.New(color.FgRed, color.Bold)
	promptColor     = color.New(color.FgHiBlue)
	fileColor       = color.New(color.FgRed)
	selectedMarker  = color.New(color.FgGreen, color.Bold).Sprint("*")
	defaultWidth    = 80
	minTitlePadding = 6
)

func width() int {
	if w := goterm.Width(); w > 0 {
		return w
	}
	return defaultWidth
}

// Separator printed to cli.
func Separator() {
	separatorColor.Println(strings.Repeat("-", width()))
}

// Title printed to cli, centered between separators.
func Title(text string, args ...any) {
	w := width()
	padding := strings.Repeat(" ", minTitlePadding)
	title := padding + fmt.Sprintf(text, args...) + padding
	if len(title) >= w {
		titleColor.Println(title)
		return
	}
	left := strings.Repeat("-", (w-len(title))/2)
	right := strings.Repeat("-", w-len(title)-len(left))
	titleColor.Println(left + title + right)
}

// UserInput printed to cli.
func UserInput(text string, args ...any) {
	userInputColor.Printf(text, args...)
}

// AssistantOutput printed to cli.
func AssistantOutput(text string) {
	assistantColor.Print(text)
}

// ContextRef printed to cli under an assistant reply.
func ContextRef(heading, snippet string) {
	contextColor.Printf("  ↳ %s\n", heading)
	if snippet != "" {
		contextColor.Printf("    %s\n", strings.Join(strings.Fields(snippet), " "))
	}
}

// Status printed to cli.
func Status(text string, args ...any) {
	statusColor.Printf(text+"\n", args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Printf(text+"\n", args...)
}

// FileInfo printed to cli.
func FileInfo(text string, args ...any) {
	fileColor.Printf(text, args...)
}

// MemoryLine prints one row of a memory listing.
func MemoryLine(memory *types.Memory, selected bool) {
	marker := " "
	if selected {
		marker = selectedMarker
	}
	fmt.Printf("%s %s  %s", marker, separatorColor.Sprint(memory.ID), memory.Title)
	if len(memory.Tags) > 0 {
		fmt.Print("  " + contextColor.Sprint("#"+strings.Join(memory.Tags, " #")))
	}
	fmt.Println()
}

// PromptUser reads one chat input. A trailing backslash continues it on the next line.
func PromptUser(rl *readline.Instance) (string, error) {
	var lines []string
	rl.SetPrompt(promptColor.Sprint("> "))
	for {
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(line, "\\") {
			lines = append(lines, strings.TrimSuffix(line, "\\"))
			rl.SetPrompt(promptColor.Sprint(". "))
			continue
		}
		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}

// NewPrompt returns a readline instance without a history file.
func NewPrompt() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating prompt")
	}
	return rl, nil
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	confirm := false
	survey.AskOne(&survey.Confirm{Message: question}, &confirm)
	return confirm
}

// SelectMemory asks which memory to focus.
func SelectMemory(memories []*types.Memory) (*types.Memory, error) {
	if len(memories) == 0 {
		return nil, errors.New("no memories")
	}
	options := make([]string, len(memories))
	for i, memory := range memories {
		options[i] = fmt.Sprintf("%s (%s)", memory.Title, memory.ID)
	}
	var index int
	if err := survey.AskOne(&survey.Select{Message: "Memory:", Options: options, PageSize: 15}, &index); err != nil {
		return nil, errors.Wrap(err, "selecting memory")
	}
	return memories[index], nil
}

// JSON prints v indented.
func JSON(v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling output")
	}
	fmt.Println(string(bytes))
	return nil
}

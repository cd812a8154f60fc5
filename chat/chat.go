package chat

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/markdown"
	"github.com/minddock/minddock/internal/types"
)

const resetCommand = "/reset"

// NewCmd instantiates and returns the chat command.
func NewCmd(a *app.App) *cobra.Command {
	var opts struct {
		User   string
		Memory string
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Back and forth chat with the assistant",
		Long:  "Back and forth chat with the assistant, grounded on the memories of the active user",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			workspace, err := a.OpenMemory(ctx, opts.User, opts.Memory)
			cobra.CheckErr(err)

			// Headers.
			snapshot := workspace.Snapshot()
			cli.Title("MINDDOCK CHAT [%s]", snapshot.ActiveUser().DisplayName())
			if snapshot.Selected != nil {
				cli.FileInfo("focused memory: %s\n", snapshot.Selected.Title)
			}

			rl, err := cli.NewPrompt()
			cobra.CheckErr(err)
			defer rl.Close()

			for {
				// Query user for prompt.
				text, err := cli.PromptUser(rl)
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return
				}
				cobra.CheckErr(err)
				text = strings.TrimSpace(text)
				if text == "" {
					continue
				}
				if text == resetCommand {
					workspace.Chat.Reset()
					cli.Status("Transcript cleared.")
					continue
				}

				// Quick feedback so user knows query has been submitted.
				cli.AssistantOutput("MINDDOCK: ")
				if err := workspace.Chat.Send(ctx, text); err != nil {
					_, message := workspace.Status().Get()
					cli.Error(message)
					continue
				}
				printReply(lastReply(workspace.Store().Transcript()))
			}
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	cmd.Flags().StringVarP(&opts.Memory, "memory", "m", "", "memory id to focus the conversation on")
	return cmd
}

// lastReply returns the trailing assistant turn, nil if the transcript does not end with one.
func lastReply(transcript []*types.ChatMessage) *types.ChatMessage {
	if len(transcript) == 0 || transcript[len(transcript)-1].Role != types.RoleAssistant {
		return nil
	}
	return transcript[len(transcript)-1]
}

func printReply(reply *types.ChatMessage) {
	if reply == nil {
		cli.AssistantOutput("\n")
		return
	}
	cli.AssistantOutput(reply.Content + "\n")
	for _, ref := range reply.Context {
		cli.ContextRef(markdown.ContextHeading(ref), ref.Snippet)
	}
}

package chat

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
)

// NewAskCmd instantiates and returns the ask command.
func NewAskCmd(a *app.App) *cobra.Command {
	var opts struct {
		User   string
		Memory string
		JSON   bool
	}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workspace, err := a.OpenMemory(ctx, opts.User, opts.Memory)
			if err != nil {
				return err
			}
			if err := workspace.Chat.Send(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			reply := lastReply(workspace.Store().Transcript())
			if opts.JSON {
				return cli.JSON(reply)
			}
			printReply(reply)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	cmd.Flags().StringVarP(&opts.Memory, "memory", "m", "", "memory id to focus the question on")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the reply and its context as JSON")
	return cmd
}

package memories

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/state"
)

// NewMemoCmd instantiates and returns the memo command.
func NewMemoCmd(a *app.App) *cobra.Command {
	var opts struct {
		User     string
		Title    string
		Context  string
		Metadata MetadataOpts
	}
	cmd := &cobra.Command{
		Use:   "memo [content]",
		Short: "Save a text memo",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			capturedAt, err := parseCapturedAt(opts.Metadata.CapturedAt)
			if err != nil {
				return err
			}
			extra, err := parseContext(opts.Context)
			if err != nil {
				return err
			}
			workspace, err := a.OpenWorkspace(ctx, opts.User)
			if err != nil {
				return err
			}
			memory, err := workspace.Mutations.CreateMemo(ctx, state.MemoForm{
				Title:          opts.Title,
				Content:        strings.Join(args, " "),
				Tags:           opts.Metadata.Tags,
				CapturedAt:     capturedAt,
				SourceDevice:   opts.Metadata.SourceDevice,
				SourceLocation: opts.Metadata.SourceLocation,
				Context:        extra,
			})
			if err := report(workspace, err); err != nil {
				return err
			}
			cli.MemoryLine(memory, true)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "memo title")
	cmd.Flags().StringVar(&opts.Context, "context", "", "free-form JSON object stored with the memo")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	opts.Metadata.register(cmd)
	return cmd
}

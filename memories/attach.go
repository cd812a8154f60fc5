package memories

import (
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/file"
	"github.com/minddock/minddock/internal/state"
)

// NewAttachCmd instantiates and returns the attach command.
func NewAttachCmd(a *app.App) *cobra.Command {
	var opts struct {
		User string
	}
	cmd := &cobra.Command{
		Use:   "attach <memory-id> <file>",
		Short: "Upload a file against a memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			upload, err := file.ReadUpload(args[1])
			if err != nil {
				return err
			}
			workspace, err := a.OpenMemory(ctx, opts.User, args[0])
			if err != nil {
				return err
			}
			cli.FileInfo("uploading %s (%s)\n", upload.Filename, upload.ContentType)
			attachment, err := workspace.Mutations.AttachFile(ctx, state.AttachForm{File: upload})
			if err := report(workspace, err); err != nil {
				return err
			}
			cli.FileInfo("%s  %s\n", attachment.ID, attachment.Filename)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email owning the memory")
	return cmd
}

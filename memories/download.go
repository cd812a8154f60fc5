package memories

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/file"
	"github.com/minddock/minddock/internal/types"
)

// NewDownloadCmd instantiates and returns the download command.
func NewDownloadCmd(a *app.App) *cobra.Command {
	var opts struct {
		Output string
		Force  bool
	}
	cmd := &cobra.Command{
		Use:   "download <memory-id> <attachment-id>",
		Short: "Download an attachment of a memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			memoryID, attachmentID := args[0], args[1]
			output := opts.Output
			if output == "" {
				attachment, err := findAttachment(ctx, a, memoryID, attachmentID)
				if err != nil {
					return err
				}
				output = filepath.Base(attachment.Filename)
			}
			output, err := file.ExpandPath(output)
			if err != nil {
				return err
			}
			exists, err := file.Exists(output)
			if err != nil {
				return err
			}
			if exists && !opts.Force && !cli.QueryUser(output+" exists, overwrite?") {
				return nil
			}

			content, contentType, err := a.Client.DownloadAttachment(ctx, memoryID, attachmentID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", output)
			}
			cli.FileInfo("wrote %s (%s, %d bytes)\n", output, contentType, len(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "destination path, defaults to the attachment filename")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing file without asking")
	return cmd
}

func findAttachment(ctx context.Context, a *app.App, memoryID, attachmentID string) (*types.Attachment, error) {
	memory, err := a.Client.GetMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	for _, attachment := range memory.Attachments {
		if attachment.ID == attachmentID {
			return attachment, nil
		}
	}
	return nil, errors.Errorf("memory %s has no attachment %s", memoryID, attachmentID)
}

package memories

import (
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/file"
	"github.com/minddock/minddock/internal/state"
)

// NewTranscribeCmd instantiates and returns the transcribe command.
func NewTranscribeCmd(a *app.App) *cobra.Command {
	var opts struct {
		User     string
		Title    string
		Metadata MetadataOpts
	}
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio recording into a new memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			capturedAt, err := parseCapturedAt(opts.Metadata.CapturedAt)
			if err != nil {
				return err
			}
			upload, err := file.ReadUpload(args[0])
			if err != nil {
				return err
			}
			workspace, err := a.OpenWorkspace(ctx, opts.User)
			if err != nil {
				return err
			}
			cli.FileInfo("uploading %s (%s)\n", upload.Filename, upload.ContentType)
			memory, err := workspace.Mutations.TranscribeAudio(ctx, state.AudioForm{
				File:           upload,
				Title:          opts.Title,
				Tags:           opts.Metadata.Tags,
				CapturedAt:     capturedAt,
				SourceDevice:   opts.Metadata.SourceDevice,
				SourceLocation: opts.Metadata.SourceLocation,
			})
			if err := report(workspace, err); err != nil {
				return err
			}
			cli.MemoryLine(memory, true)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "memory title, derived from the transcript when empty")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	opts.Metadata.register(cmd)
	return cmd
}

package memories

import (
	"fmt"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/markdown"
	"github.com/minddock/minddock/internal/types"
)

const defaultRenderWidth = 100

// NewShowCmd instantiates and returns the show command.
func NewShowCmd(a *app.App) *cobra.Command {
	var opts struct {
		User     string
		Markdown bool
		JSON     bool
	}
	cmd := &cobra.Command{
		Use:   "show [memory-id]",
		Short: "Show a memory, prompting for one when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var memoryID string
			if len(args) == 1 {
				memoryID = args[0]
			}
			workspace, err := a.OpenMemory(ctx, opts.User, memoryID)
			if err != nil {
				return err
			}
			snapshot := workspace.Snapshot()
			if memoryID == "" {
				memory, err := cli.SelectMemory(snapshot.Memories)
				if err != nil {
					return err
				}
				if err := workspace.Synchronizer.SelectMemory(ctx, memory.ID); err != nil {
					return err
				}
				snapshot = workspace.Snapshot()
			}

			memory, owner := snapshot.Selected, snapshot.ActiveUser().DisplayName()
			switch {
			case opts.JSON:
				return cli.JSON(memory)
			case opts.Markdown:
				return printMarkdown(memory, owner)
			}
			template, err := cli.NewMemoryTemplate(a.Config.Templates.Memory)
			if err != nil {
				return err
			}
			output, err := template.Render(memory, owner)
			if err != nil {
				return err
			}
			fmt.Print(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	cmd.Flags().BoolVar(&opts.Markdown, "markdown", false, "render the memory as styled markdown")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the memory as JSON")
	return cmd
}

func printMarkdown(memory *types.Memory, owner string) error {
	width := goterm.Width()
	if width <= 0 {
		width = defaultRenderWidth
	}
	renderer, err := markdown.NewRenderer(width)
	if err != nil {
		return err
	}
	fmt.Print(renderer.Render(markdown.MemoryDocument(memory, owner)))
	return nil
}

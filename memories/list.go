package memories

import (
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
)

// NewListCmd instantiates and returns the memories command.
func NewListCmd(a *app.App) *cobra.Command {
	var opts struct {
		User string
		JSON bool
	}
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "List the memories of a user",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, err := a.OpenWorkspace(cmd.Context(), opts.User)
			if err != nil {
				return err
			}
			snapshot := workspace.Snapshot()
			if opts.JSON {
				return cli.JSON(snapshot.Memories)
			}
			cli.Title("Memories of %s (%d)", snapshot.ActiveUser().DisplayName(), len(snapshot.Memories))
			for _, memory := range snapshot.Memories {
				cli.MemoryLine(memory, memory.ID == snapshot.ActiveMemoryID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email, defaults to the configured default user")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print memories as JSON")
	return cmd
}

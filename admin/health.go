package admin

import (
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
)

// NewHealthCmd instantiates and returns the health command.
func NewHealthCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.Client.Health(cmd.Context())
			if err != nil {
				cli.Error("%s is unreachable", a.Config.APIBaseURL)
				return err
			}
			cli.Status("%s: %s", a.Config.APIBaseURL, status)
			return nil
		},
	}
}

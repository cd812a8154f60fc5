package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/debug"
)

// NewCmd instantiates and returns the interactive workspace command.
func NewCmd(a *app.App) *cobra.Command {
	var opts struct {
		User string
	}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse memories and chat with the assistant in a terminal UI",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := clipboard.Init(); err != nil {
				debug.Component("tui").Warn().Err(err).Msg("clipboard unavailable")
			}

			model, err := New(ctx, a.Config, a.NewWorkspace(opts.User))
			if err != nil {
				return err
			}
			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)
			if _, err := program.Run(); err != nil {
				return errors.Wrap(err, "running tui")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user id or email to start with, defaults to the configured default user")
	return cmd
}

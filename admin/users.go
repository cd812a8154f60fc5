package admin

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/types"
)

var inactiveColor = color.New(color.FgHiBlack)

// NewListUsersCmd instantiates and returns the users command.
func NewListUsersCmd(a *app.App) *cobra.Command {
	var opts struct {
		JSON bool
	}
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users known to the backend",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.Client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if opts.JSON {
				return cli.JSON(users)
			}
			cli.Title("Users (%d)", len(users))
			for _, user := range users {
				fmt.Println(formatUser(user, isDefault(user, a.Config.DefaultUser)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print users as JSON")
	return cmd
}

func isDefault(user *types.User, defaultUser string) bool {
	return defaultUser != "" && (user.ID == defaultUser || user.Email == defaultUser)
}

func formatUser(user *types.User, marked bool) string {
	marker := " "
	if marked {
		marker = "*"
	}
	line := fmt.Sprintf("%s %s  %s <%s>", marker, user.ID, user.DisplayName(), user.Email)
	if !user.IsActive {
		return inactiveColor.Sprint(line + " (inactive)")
	}
	return line
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/minddock/minddock/admin"
	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/chat"
	"github.com/minddock/minddock/cli/tui"
	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/debug"
	"github.com/minddock/minddock/memories"
)

const configFilepath = "~/.config/minddock/config.json"

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	// Instantiate the backend client.
	client, err := api.NewFromConfig(config)
	if err != nil {
		panic(err)
	}
	a, err := app.NewApp(config, client)
	if err != nil {
		panic(err)
	}
	os.Exit(execute(newRootCmd(a), os.Args[1:]))
}

func newRootCmd(a *app.App) *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:          "minddock",
		Short:        "A terminal client for the MindDock memory assistant",
		Version:      "1.0",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return debug.Init(a.Config.DebugLogPath, verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&verbose, "debug", false, "log debug output to "+a.Config.DebugLogPath)

	rootCmd.AddCommand(tui.NewCmd(a))
	rootCmd.AddCommand(chat.NewCmd(a))
	rootCmd.AddCommand(chat.NewAskCmd(a))
	rootCmd.AddCommand(admin.NewListUsersCmd(a))
	rootCmd.AddCommand(admin.NewHealthCmd(a))
	rootCmd.AddCommand(memories.NewListCmd(a))
	rootCmd.AddCommand(memories.NewShowCmd(a))
	rootCmd.AddCommand(memories.NewMemoCmd(a))
	rootCmd.AddCommand(memories.NewTranscribeCmd(a))
	rootCmd.AddCommand(memories.NewAttachCmd(a))
	rootCmd.AddCommand(memories.NewDownloadCmd(a))
	return rootCmd
}

// execute runs rootCmd with args and returns the process exit status.
// Cobra has already printed the error.
func execute(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

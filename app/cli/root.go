package cli

import (
	"maven/app/config"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "maven",
		Short:         "Maven productivity assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config")

	cmd.AddCommand(
		serveCmd(&configPath),
		chatCmd(&configPath),
		mcpCmd(&configPath),
		braindumpCmd(&configPath),
		searchCmd(&configPath),
	)

	return cmd
}

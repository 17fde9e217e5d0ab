package cli

import (
	"maven/app/service/mcpserver"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func mcpCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the workspace actions as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			server, err := do.Invoke[*mcpserver.Service](a.di)
			if err != nil {
				return err
			}

			return server.Serve(a.ctx)
		},
	}
}

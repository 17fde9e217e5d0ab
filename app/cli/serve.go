package cli

import (
	"log/slog"

	"maven/app/api"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the dispatch worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.startWorker(); err != nil {
				return err
			}

			server, err := do.Invoke[*api.Server](a.di)
			if err != nil {
				return err
			}

			slog.Info("Service started")

			return server.Run(a.ctx)
		},
	}
}

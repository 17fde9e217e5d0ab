package cli

import (
	"encoding/json"
	"strings"

	"maven/app/service/search"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func searchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Ask a question answered from your notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := do.Invoke[*search.Service](a.di)
			if err != nil {
				return err
			}

			result, err := svc.Search(a.ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(result)
		},
	}
}

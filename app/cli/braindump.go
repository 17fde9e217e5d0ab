package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"maven/app/service/braindump"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func braindumpCmd(configPath *string) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "braindump <text>",
		Short: "Extract tasks, events and notes from free text",
		Long: `Sends the text to the model and prints the extracted items.
With --commit every item is added to the workspace.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := do.Invoke[*braindump.Service](a.di)
			if err != nil {
				return err
			}

			ext, err := svc.Extract(a.ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if err = printExtraction(cmd.OutOrStdout(), ext); err != nil {
				return err
			}

			if !commit {
				return nil
			}

			count, err := svc.Commit(a.ctx, ext)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), braindump.Message(count))

			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "add every extracted item to the workspace")

	return cmd
}

func printExtraction(out io.Writer, ext *braindump.Extraction) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(ext)
}

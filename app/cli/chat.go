package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"maven/app/service/assistant"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

const prompt = "> "

// Submitter is the part of the assistant the chat loop drives.
type Submitter interface {
	Submit(ctx context.Context, utterance string) (*assistant.Exchange, error)
}

func chatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		Long: `Reads one utterance per line from stdin and prints the assistant's reply.
Type /quit or send EOF to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.startWorker(); err != nil {
				return err
			}

			assistantSvc, err := do.Invoke[*assistant.Service](a.di)
			if err != nil {
				return err
			}

			return runChat(a.ctx, assistantSvc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, submitter Submitter, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, prompt)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return nil
		}

		exchange, err := submitter.Submit(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			printExchange(out, exchange)
		}

		fmt.Fprint(out, prompt)
	}

	return scanner.Err()
}

func printExchange(out io.Writer, exchange *assistant.Exchange) {
	if exchange.Outcome == assistant.OutcomeIgnored {
		return
	}

	if exchange.Action != "" {
		fmt.Fprintf(out, "[%s] %s\n", exchange.Action, exchange.Result)
	}

	fmt.Fprintln(out, exchange.Reply)
}

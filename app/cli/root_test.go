package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"maven/app/config"
	"maven/app/service/assistant"
	"maven/app/service/braindump"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, config.DefaultPath, flag.DefValue)

	for _, name := range []string{"serve", "chat", "mcp", "braindump", "search"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	dump, _, err := root.Find([]string{"braindump"})
	require.NoError(t, err)
	assert.NotNil(t, dump.Flags().Lookup("commit"))
}

func TestBrainDumpRequiresText(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"braindump"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}

type fakeSubmitter struct {
	seen []string
}

func (f *fakeSubmitter) Submit(_ context.Context, utterance string) (*assistant.Exchange, error) {
	f.seen = append(f.seen, utterance)

	switch utterance {
	case "":
		return &assistant.Exchange{Outcome: assistant.OutcomeIgnored}, nil
	case "add milk":
		return &assistant.Exchange{
			Outcome: assistant.OutcomeActionReplied,
			Action:  "addTask",
			Result:  `Task "milk" added.`,
			Reply:   "Added milk to your list.",
		}, nil
	case "fail":
		return nil, errors.New("queue is full")
	}

	return &assistant.Exchange{Outcome: assistant.OutcomeReplied, Reply: "Hi there!"}, nil
}

func TestRunChat(t *testing.T) {
	submitter := &fakeSubmitter{}
	var out bytes.Buffer

	in := strings.NewReader("hello\n\nadd milk\nfail\n/quit\nignored\n")
	require.NoError(t, runChat(context.Background(), submitter, in, &out))

	assert.Equal(t, []string{"hello", "", "add milk", "fail"}, submitter.seen)

	text := out.String()
	assert.Contains(t, text, "Hi there!\n")
	assert.Contains(t, text, "[addTask] Task \"milk\" added.\nAdded milk to your list.\n")
	assert.Contains(t, text, "error: queue is full\n")
	assert.NotContains(t, text, "ignored")
}

func TestRunChatStopsOnEOF(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), &fakeSubmitter{}, strings.NewReader("hello"), &out))
	assert.Equal(t, "> Hi there!\n> ", out.String())
}

func TestPrintExtraction(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printExtraction(&out, &braindump.Extraction{
		Tasks: []braindump.Task{{Text: "buy milk", Selected: true}},
	}))
	assert.Contains(t, out.String(), "buy milk")
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"maven/app/client/model"
	"maven/app/client/model/modeltest"
	"maven/app/service/conversation"
	"maven/app/service/queue"
	"maven/app/service/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls map[string][]registry.Args
	tasks []string
}

func (r *recorder) record(name string, args registry.Args) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[name] = append(r.calls[name], args)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls[name])
}

func newCatalog(t *testing.T, client model.Client) (*registry.Registry, *recorder) {
	t.Helper()

	rec := &recorder{calls: map[string][]registry.Args{}}
	reg := registry.NewRegistry()

	reg.Register(registry.ActionSpec{
		Name:        "addTask",
		Description: "Adds a new task to the user's to-do list.",
		Parameters: []registry.FieldSpec{
			{Name: "taskText", Type: registry.TypeString, Required: true, Description: "The content of the task."},
		},
	}, func(_ context.Context, args registry.Args) (string, error) {
		rec.record("addTask", args)

		rec.mu.Lock()
		rec.tasks = append(rec.tasks, args.String("taskText"))
		rec.mu.Unlock()

		return fmt.Sprintf("✅ Task added: \"%s\"", args.String("taskText")), nil
	})

	reg.Register(registry.ActionSpec{
		Name:        "listTasks",
		Description: "Lists all current tasks, separated by completion status.",
	}, func(_ context.Context, args registry.Args) (string, error) {
		rec.record("listTasks", args)

		rec.mu.Lock()
		defer rec.mu.Unlock()

		if len(rec.tasks) == 0 {
			return "You have no tasks.", nil
		}
		return "📝 Incomplete Tasks:\n- " + strings.Join(rec.tasks, "\n- "), nil
	})

	reg.Register(registry.ActionSpec{Name: "broken", Description: "Always fails."},
		func(_ context.Context, args registry.Args) (string, error) {
			rec.record("broken", args)
			return "", errors.New("disk full")
		})

	reg.Register(registry.ActionSpec{Name: "explode", Description: "Always panics."},
		func(_ context.Context, args registry.Args) (string, error) {
			rec.record("explode", args)
			panic("boom")
		})

	reg.Register(registry.ActionSpec{
		Name:        "createPlanAndNote",
		Description: "Creates a plan.",
		Parameters:  []registry.FieldSpec{{Name: "topic", Type: registry.TypeString, Required: true}},
	}, func(ctx context.Context, args registry.Args) (string, error) {
		rec.record("createPlanAndNote", args)

		plan, err := model.Prompt(ctx, client, "Create a plan for "+args.String("topic"))
		if err != nil {
			return "", err
		}
		return "✅ Plan: " + plan, nil
	})

	reg.Freeze()

	return reg, rec
}

func newTestService(t *testing.T, fake *modeltest.Fake) (*Service, *recorder) {
	t.Helper()

	reg, rec := newCatalog(t, fake)
	svc := NewService(fake, reg, queue.NewService[Job](8), Options{
		SystemInstruction: "You are a helpful assistant.",
		Timeout:           time.Second,
	})

	return svc, rec
}

func roles(turns []conversation.Turn) []conversation.Role {
	result := make([]conversation.Role, len(turns))
	for i, turn := range turns {
		result[i] = turn.Role
	}

	return result
}

func TestBlankUtteranceIsIgnored(t *testing.T) {
	fake := modeltest.New()
	svc, _ := newTestService(t, fake)

	for _, utterance := range []string{"", "   ", "\n\t"} {
		exchange, err := svc.Handle(context.Background(), utterance)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, exchange.Outcome)
	}

	assert.Zero(t, svc.Transcript().Len())
	assert.Zero(t, fake.Calls())
}

func TestPlainReply(t *testing.T) {
	var (
		svc         *Service
		turnsAtCall int
	)

	fake := modeltest.New(modeltest.Step{
		Reply: &model.Reply{Text: "Hello! How can I help?"},
		Hook: func(context.Context, *model.Request) {
			turnsAtCall = svc.Transcript().Len()
		},
	})
	svc, _ = newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "  hi there  ")
	require.NoError(t, err)

	assert.Equal(t, &Exchange{Outcome: OutcomeReplied, Reply: "Hello! How can I help?"}, exchange)
	assert.Equal(t, 1, turnsAtCall)
	assert.Equal(t, 1, fake.Calls())

	turns := svc.Transcript().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, []conversation.Role{conversation.RoleUser, conversation.RoleModel}, roles(turns))
	assert.Equal(t, "hi there", turns[0].Text())
	assert.Equal(t, "Hello! How can I help?", turns[1].Text())

	req := fake.Requests()[0]
	assert.Equal(t, "You are a helpful assistant.", req.SystemInstruction)
	assert.Len(t, req.Tools, 5)
	require.Len(t, req.Turns, 1)
}

func TestActionRoundTrip(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", map[string]any{"taskText": "buy milk"}),
		modeltest.Text("Done! I've added \"buy milk\" to your tasks."),
	)
	svc, rec := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Add a task to buy milk")
	require.NoError(t, err)

	assert.Equal(t, &Exchange{
		Outcome: OutcomeActionReplied,
		Action:  "addTask",
		Result:  `✅ Task added: "buy milk"`,
		Reply:   "Done! I've added \"buy milk\" to your tasks.",
	}, exchange)

	require.Equal(t, 1, rec.count("addTask"))
	assert.Equal(t, registry.Args{"taskText": "buy milk"}, rec.calls["addTask"][0])

	turns := svc.Transcript().Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, []conversation.Role{conversation.RoleUser, conversation.RoleUser, conversation.RoleModel}, roles(turns))

	result := turns[1].FunctionResult()
	require.NotNil(t, result)
	assert.Equal(t, "addTask", result.Name)
	assert.Equal(t, `✅ Task added: "buy milk"`, result.Content)
	assert.Equal(t, map[string]any{"taskText": "buy milk"}, result.Args)
	assert.Contains(t, turns[2].Text(), "buy milk")

	require.Equal(t, 2, fake.Calls())
	second := fake.Requests()[1]
	require.Len(t, second.Turns, 2)
	assert.NotNil(t, second.Turns[1].FunctionResult())
	assert.Len(t, second.Tools, 5)
}

func TestUnknownActionUsesFallbackResult(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("orderPizza", map[string]any{"size": "large"}),
		modeltest.Text("I can't order pizza, sorry."),
	)
	svc, rec := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Order me a pizza")
	require.NoError(t, err)

	assert.Equal(t, OutcomeActionReplied, exchange.Outcome)
	assert.Equal(t, UnknownActionResult, exchange.Result)
	assert.Empty(t, rec.calls)

	turns := svc.Transcript().Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "Sorry, I can't do that.", turns[1].FunctionResult().Content)
}

func TestInvalidArgumentsAreNotForwarded(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", map[string]any{"taskText": 42.0}),
		modeltest.Text("Something went wrong with that task."),
	)
	svc, rec := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Add task 42")
	require.NoError(t, err)

	assert.Zero(t, rec.count("addTask"))
	assert.Equal(t, OutcomeActionReplied, exchange.Outcome)
	assert.Equal(t, "⚠️ Invalid arguments for addTask: taskText must be a string, got number", exchange.Result)
	assert.Equal(t, 2, fake.Calls())
}

func TestMissingRequiredArgument(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", nil),
		modeltest.Text("What should the task say?"),
	)
	svc, rec := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Add a task")
	require.NoError(t, err)

	assert.Zero(t, rec.count("addTask"))
	assert.Equal(t, "⚠️ Invalid arguments for addTask: taskText is required", exchange.Result)
}

func TestOnlyFirstCallIsHonored(t *testing.T) {
	fake := modeltest.New(
		modeltest.Step{Reply: &model.Reply{Calls: []conversation.FunctionCall{
			{Name: "addTask", Args: map[string]any{"taskText": "first"}},
			{Name: "addTask", Args: map[string]any{"taskText": "second"}},
		}}},
		modeltest.Text("Added the first task."),
	)
	svc, rec := newTestService(t, fake)

	_, err := svc.Handle(context.Background(), "Add two tasks")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count("addTask"))
	assert.Equal(t, "first", rec.calls["addTask"][0].String("taskText"))
	assert.Equal(t, 3, svc.Transcript().Len())
}

func TestFirstRoundTripFailure(t *testing.T) {
	fake := modeltest.New(modeltest.Fail(errors.New("connection reset")))
	svc, _ := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, &Exchange{Outcome: OutcomeFailed, Reply: ApologyText}, exchange)

	turns := svc.Transcript().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Text())
	assert.Equal(t, ApologyText, turns[1].Text())
	assert.Equal(t, StateIdle, svc.State())
}

func TestSecondRoundTripFailure(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", map[string]any{"taskText": "buy milk"}),
		modeltest.Fail(errors.New("503 service unavailable")),
	)
	svc, rec := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Add a task to buy milk")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, exchange.Outcome)
	assert.Equal(t, "addTask", exchange.Action)
	assert.Equal(t, 1, rec.count("addTask"))

	turns := svc.Transcript().Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "Add a task to buy milk", turns[0].Text())
	assert.NotNil(t, turns[1].FunctionResult())
	assert.Equal(t, conversation.RoleModel, turns[2].Role)
	assert.Equal(t, ApologyText, turns[2].Text())
}

func TestEmptyRepliesFail(t *testing.T) {
	fake := modeltest.New(
		modeltest.Text("  "),
		modeltest.Call("listTasks", nil),
		modeltest.Call("listTasks", nil),
	)
	svc, _ := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, exchange.Outcome)

	exchange, err = svc.Handle(context.Background(), "what are my tasks?")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, exchange.Outcome)
	assert.Equal(t, "You have no tasks.", exchange.Result)

	last, ok := svc.Transcript().Last()
	require.True(t, ok)
	assert.Equal(t, ApologyText, last.Text())
}

func TestHandlerFailures(t *testing.T) {
	for _, action := range []string{"broken", "explode"} {
		t.Run(action, func(t *testing.T) {
			fake := modeltest.New(modeltest.Call(action, nil))
			svc, rec := newTestService(t, fake)

			exchange, err := svc.Handle(context.Background(), "do it")
			require.NoError(t, err)

			assert.Equal(t, OutcomeFailed, exchange.Outcome)
			assert.Equal(t, action, exchange.Action)
			assert.Equal(t, 1, rec.count(action))
			assert.Equal(t, 1, fake.Calls())

			turns := svc.Transcript().Turns()
			require.Len(t, turns, 2)
			assert.Equal(t, ApologyText, turns[1].Text())
			assert.Equal(t, StateIdle, svc.State())
		})
	}
}

func TestRoundTripTimeout(t *testing.T) {
	fake := modeltest.New(modeltest.Step{
		Hook: func(ctx context.Context, _ *model.Request) {
			<-ctx.Done()
		},
	})
	reg, _ := newCatalog(t, fake)
	svc := NewService(fake, reg, queue.NewService[Job](1), Options{Timeout: 20 * time.Millisecond})

	exchange, err := svc.Handle(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, exchange.Outcome)
	assert.Equal(t, 2, svc.Transcript().Len())
}

func TestSingleFlight(t *testing.T) {
	ctx := context.Background()

	var (
		svc        *Service
		busyErr    error
		states     []State
		transcript int
	)

	fake := modeltest.New(
		modeltest.Step{
			Reply: &model.Reply{Calls: []conversation.FunctionCall{{Name: "addTask", Args: map[string]any{"taskText": "buy milk"}}}},
			Hook: func(context.Context, *model.Request) {
				states = append(states, svc.State())
				_, busyErr = svc.Handle(ctx, "second utterance")
				transcript = svc.Transcript().Len()
			},
		},
		modeltest.Step{
			Reply: &model.Reply{Text: "Added."},
			Hook: func(context.Context, *model.Request) {
				states = append(states, svc.State())
			},
		},
	)
	svc, _ = newTestService(t, fake)

	_, err := svc.Handle(ctx, "first utterance")
	require.NoError(t, err)

	assert.ErrorIs(t, busyErr, ErrBusy)
	assert.Equal(t, 1, transcript)
	assert.Equal(t, []State{StateAwaitingFirstResponse, StateAwaitingSecondResponse}, states)
	assert.Equal(t, StateIdle, svc.State())

	for _, turn := range svc.Transcript().Turns() {
		assert.NotEqual(t, "second utterance", turn.Text())
	}
}

func TestNestedModelCallInsideAction(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("createPlanAndNote", map[string]any{"topic": "podcast"}),
		modeltest.Text("1. Buy a mic"),
		modeltest.Text("I've created your podcast plan."),
	)
	svc, _ := newTestService(t, fake)

	exchange, err := svc.Handle(context.Background(), "Plan my podcast")
	require.NoError(t, err)

	assert.Equal(t, OutcomeActionReplied, exchange.Outcome)
	assert.Equal(t, "✅ Plan: 1. Buy a mic", exchange.Result)
	assert.Equal(t, 3, fake.Calls())

	nested := fake.Requests()[1]
	assert.Empty(t, nested.Tools)
	require.Len(t, nested.Turns, 1)

	assert.Equal(t, 3, svc.Transcript().Len())
}

func TestQueryActionIsStable(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", map[string]any{"taskText": "buy milk"}),
		modeltest.Text("Added."),
		modeltest.Call("listTasks", nil),
		modeltest.Text("You need to buy milk."),
		modeltest.Call("listTasks", map[string]any{}),
		modeltest.Text("Still just milk."),
	)
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "Add a task to buy milk")
	require.NoError(t, err)

	first, err := svc.Handle(ctx, "List my tasks")
	require.NoError(t, err)

	second, err := svc.Handle(ctx, "List my tasks again")
	require.NoError(t, err)

	assert.Equal(t, "📝 Incomplete Tasks:\n- buy milk", first.Result)
	assert.Equal(t, first.Result, second.Result)
}

func TestTranscriptIsObservable(t *testing.T) {
	fake := modeltest.New(
		modeltest.Call("addTask", map[string]any{"taskText": "buy milk"}),
		modeltest.Text("Added."),
	)
	svc, _ := newTestService(t, fake)

	turns, cancel := svc.Transcript().Subscribe(8)
	defer cancel()

	_, err := svc.Handle(context.Background(), "Add a task to buy milk")
	require.NoError(t, err)

	var got []string
	for range 3 {
		turn := <-turns
		if result := turn.FunctionResult(); result != nil {
			got = append(got, "result:"+result.Name)
			continue
		}
		got = append(got, string(turn.Role)+":"+turn.Text())
	}

	assert.Equal(t, []string{"user:Add a task to buy milk", "result:addTask", "model:Added."}, got)
}

type fakeCapture struct {
	mu      sync.Mutex
	stopped bool
}

func (c *fakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
}

func (c *fakeCapture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopped
}

func runWorker(t *testing.T, svc *Service) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for job := range svc.Jobs() {
			svc.Process(job)
		}
	}()

	t.Cleanup(func() {
		_ = svc.queue.Shutdown()
		<-done
	})
}

func TestSendInputStopsCaptureFirst(t *testing.T) {
	capture := &fakeCapture{}

	var stoppedAtCall bool
	fake := modeltest.New(modeltest.Step{
		Reply: &model.Reply{Text: "Hi!"},
		Hook: func(context.Context, *model.Request) {
			stoppedAtCall = capture.Stopped()
		},
	})
	svc, _ := newTestService(t, fake)
	svc.SetCapture(capture)
	runWorker(t, svc)

	svc.SetInput("hello maven")
	assert.Equal(t, "hello maven", svc.Input())

	exchange, err := svc.SendInput(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeReplied, exchange.Outcome)
	assert.True(t, stoppedAtCall)
	assert.Empty(t, svc.Input())
	assert.Equal(t, "hello maven", svc.Transcript().Turns()[0].Text())
}

func TestSendBlankInput(t *testing.T) {
	capture := &fakeCapture{}
	fake := modeltest.New()
	svc, _ := newTestService(t, fake)
	svc.SetCapture(capture)

	svc.SetInput("  ")
	exchange, err := svc.SendInput(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeIgnored, exchange.Outcome)
	assert.True(t, capture.Stopped())
	assert.Zero(t, fake.Calls())
}

func TestSubmitSkipsAbandonedJobs(t *testing.T) {
	fake := modeltest.New()
	svc, _ := newTestService(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Submit(ctx, "hello")
	require.ErrorIs(t, err, context.Canceled)

	svc.Process(<-svc.Jobs())

	assert.Zero(t, svc.Transcript().Len())
	assert.Zero(t, fake.Calls())
}

func TestSubmitErrors(t *testing.T) {
	fake := modeltest.New()
	reg, _ := newCatalog(t, fake)
	q := queue.NewService[Job](1)
	svc := NewService(fake, reg, q, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Submit(ctx, "first")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrQueueFull)

	require.NoError(t, q.Shutdown())
	_, err = svc.Submit(context.Background(), "third")
	assert.ErrorIs(t, err, ErrClosed)
}

package voice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"maven/app/client/model/modeltest"
	"maven/app/client/speechkit"
	"maven/app/service/assistant"
	"maven/app/service/queue"
	"maven/app/service/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// silence produces zeroed audio until closed.
type silence struct {
	once   sync.Once
	closed chan struct{}
}

func (s *silence) Read(p []byte) (int, error) {
	select {
	case <-s.closed:
		return 0, io.EOF
	case <-time.After(time.Millisecond):
		clear(p)
		return len(p), nil
	}
}

func (s *silence) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeAudio struct {
	err   error
	ended bool
}

func (a *fakeAudio) Open(context.Context) (io.ReadCloser, error) {
	if a.err != nil {
		return nil, a.err
	}

	if a.ended {
		return io.NopCloser(strings.NewReader("")), nil
	}

	return &silence{closed: make(chan struct{})}, nil
}

type fakeStream struct {
	ctx     context.Context
	results chan *speechkit.Result
}

func (f *fakeStream) SendConfig() error { return nil }

func (f *fakeStream) Send([]byte) error { return nil }

func (f *fakeStream) Recv() (*speechkit.Result, error) {
	select {
	case <-f.ctx.Done():
		return nil, f.ctx.Err()
	case res, ok := <-f.results:
		if !ok {
			return nil, io.EOF
		}
		return res, nil
	}
}

func (f *fakeStream) Close() error { return nil }

// fakeRecognizer hands out one scripted stream per session.
type fakeRecognizer struct {
	mu      sync.Mutex
	streams []chan *speechkit.Result
	started int
}

func newFakeRecognizer(sessions int) *fakeRecognizer {
	r := &fakeRecognizer{}
	for range sessions {
		r.streams = append(r.streams, make(chan *speechkit.Result, 16))
	}

	return r
}

func (r *fakeRecognizer) Start(ctx context.Context) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started >= len(r.streams) {
		return nil, errors.New("no more sessions")
	}

	results := r.streams[r.started]
	r.started++

	return &fakeStream{ctx: ctx, results: results}, nil
}

func (r *fakeRecognizer) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.started
}

func partial(text string) *speechkit.Result {
	return &speechkit.Result{Text: text}
}

func final(text string) *speechkit.Result {
	return &speechkit.Result{Text: text, Final: true}
}

type inputRecorder struct {
	mu      sync.Mutex
	history []string
}

func (r *inputRecorder) SetInput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, text)
}

func (r *inputRecorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.history...)
}

func TestDisabled(t *testing.T) {
	svc := NewService(nil, nil, &inputRecorder{}, false)

	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.Start(context.Background()), ErrDisabled)
	assert.False(t, svc.Listening())

	svc.Stop()
}

func TestSinglePhrase(t *testing.T) {
	rec := newFakeRecognizer(1)
	input := &inputRecorder{}
	svc := NewService(rec, &fakeAudio{}, input, false)

	require.NoError(t, svc.Start(context.Background()))
	assert.True(t, svc.Listening())

	rec.streams[0] <- partial("add a")
	rec.streams[0] <- partial("add a task")
	rec.streams[0] <- nil
	rec.streams[0] <- final("add a task to buy milk")

	require.Eventually(t, func() bool { return !svc.Listening() }, time.Second, time.Millisecond)

	assert.Equal(t, []string{"add a", "add a task", "add a task to buy milk"}, input.History())
	assert.Equal(t, 1, rec.Sessions())
}

func TestContinuousCapture(t *testing.T) {
	rec := newFakeRecognizer(2)
	input := &inputRecorder{}
	svc := NewService(rec, &fakeAudio{}, input, true)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))

	rec.streams[0] <- final("hello")
	rec.streams[0] <- partial("wor")
	close(rec.streams[0])

	require.Eventually(t, func() bool { return rec.Sessions() == 2 }, time.Second, time.Millisecond)

	rec.streams[1] <- final("world")

	require.Eventually(t, func() bool {
		history := input.History()
		return len(history) == 3 && history[2] == "hello world"
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"hello", "hello wor", "hello world"}, input.History())
	assert.True(t, svc.Listening())

	svc.Stop()
	assert.False(t, svc.Listening())

	rec.streams[1] <- partial("ignored")
	svc.Stop()
	assert.Len(t, input.History(), 3)
}

func TestAudioFailure(t *testing.T) {
	svc := NewService(newFakeRecognizer(1), &fakeAudio{err: errors.New("no such device")}, &inputRecorder{}, false)

	require.Error(t, svc.Start(context.Background()))
	assert.False(t, svc.Listening())
}

func TestAudioEndStopsCapture(t *testing.T) {
	rec := newFakeRecognizer(2)
	input := &inputRecorder{}
	svc := NewService(rec, &fakeAudio{ended: true}, input, true)

	require.NoError(t, svc.Start(context.Background()))

	require.Eventually(t, func() bool { return !svc.Listening() }, time.Second, time.Millisecond)
	assert.Equal(t, 1, rec.Sessions())
	assert.Empty(t, input.History())

	// A fresh capture can start once the previous one ended on its own.
	require.NoError(t, svc.Start(context.Background()))
	require.Eventually(t, func() bool { return rec.Sessions() == 2 && !svc.Listening() }, time.Second, time.Millisecond)
}

func TestStopsWithContext(t *testing.T) {
	rec := newFakeRecognizer(1)
	svc := NewService(rec, &fakeAudio{}, &inputRecorder{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !svc.Listening() }, time.Second, time.Millisecond)
}

func TestSendInputStopsCapture(t *testing.T) {
	fake := modeltest.New(modeltest.Text("Added!"))
	reg := registry.NewRegistry()
	reg.Freeze()

	q := queue.NewService[assistant.Job](1)
	assistantSvc := assistant.NewService(fake, reg, q, assistant.Options{Timeout: time.Second})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for job := range assistantSvc.Jobs() {
			assistantSvc.Process(job)
		}
	}()
	defer func() {
		_ = q.Shutdown()
		<-done
	}()

	rec := newFakeRecognizer(1)
	svc := NewService(rec, &fakeAudio{}, assistantSvc, true)
	assistantSvc.SetCapture(svc)

	require.NoError(t, svc.Start(context.Background()))

	rec.streams[0] <- final("add a task")
	rec.streams[0] <- partial("to buy milk")
	require.Eventually(t, func() bool {
		return assistantSvc.Input() == "add a task to buy milk"
	}, time.Second, time.Millisecond)

	exchange, err := assistantSvc.SendInput(context.Background())
	require.NoError(t, err)

	assert.False(t, svc.Listening())
	assert.Equal(t, "Added!", exchange.Reply)
	assert.Empty(t, assistantSvc.Input())

	req := fake.Requests()[0]
	require.Len(t, req.Turns, 1)
	assert.Equal(t, "add a task to buy milk", req.Turns[0].Text())
}

// Package modeltest provides a scripted model.Client for tests.
package modeltest

import (
	"context"
	"errors"
	"sync"

	"maven/app/client/model"
	"maven/app/service/conversation"
)

var ErrScriptExhausted = errors.New("modeltest: no scripted reply left")

type Step struct {
	Reply *model.Reply
	Err   error
	// Hook runs before the reply is returned, e.g. to observe state mid-call.
	Hook func(ctx context.Context, req *model.Request)
}

// Fake returns scripted steps in order and records every request it receives.
type Fake struct {
	mu       sync.Mutex
	steps    []Step
	requests []*model.Request
}

func New(steps ...Step) *Fake {
	return &Fake{steps: steps}
}

func Text(text string) Step {
	return Step{Reply: &model.Reply{Text: text}}
}

func Call(name string, args map[string]any) Step {
	return Step{Reply: &model.Reply{Calls: []conversation.FunctionCall{{Name: name, Args: args}}}}
}

func Fail(err error) Step {
	return Step{Err: err}
}

func (f *Fake) Push(steps ...Step) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.steps = append(f.steps, steps...)
}

func (f *Fake) Generate(ctx context.Context, req *model.Request) (*model.Reply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, snapshot(req))
	if len(f.steps) == 0 {
		f.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	f.mu.Unlock()

	if step.Hook != nil {
		step.Hook(ctx, req)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if step.Err != nil {
		return nil, step.Err
	}

	return step.Reply, nil
}

func (f *Fake) Requests() []*model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*model.Request(nil), f.requests...)
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

func snapshot(req *model.Request) *model.Request {
	copied := *req
	copied.Turns = append([]conversation.Turn(nil), req.Turns...)
	return &copied
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"maven/app/client/model"
	"maven/app/config"
	"maven/app/service/conversation"
	"maven/app/service/queue"
	"maven/app/service/registry"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Catalog is the read side of the action registry.
type Catalog interface {
	DescribeAll() []registry.ActionSpec
	Lookup(name string) (registry.Action, bool)
}

// Capture is an input source that must be stopped before the buffer is sent.
type Capture interface {
	Stop()
}

type Options struct {
	SystemInstruction string
	// Timeout bounds every model round trip and the action in between.
	Timeout time.Duration
}

// Service runs the dispatch loop: utterance, model, optional action, model, reply.
// At most one loop is in flight at any time.
type Service struct {
	client     model.Client
	catalog    Catalog
	transcript *conversation.Transcript
	queue      *queue.Service[Job]
	opts       Options

	flight sync.Mutex
	state  atomic.Int32

	inputMu sync.Mutex
	input   string

	captureMu sync.Mutex
	capture   Capture
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[model.Client](di),
		do.MustInvoke[*registry.Registry](di),
		do.MustInvoke[*queue.Service[Job]](di),
		Options{
			SystemInstruction: cfg.Assistant.SystemInstruction,
			Timeout:           cfg.Model.RequestTimeout,
		},
	), nil
}

func NewService(client model.Client, catalog Catalog, q *queue.Service[Job], opts Options) *Service {
	return &Service{
		client:     client,
		catalog:    catalog,
		transcript: conversation.NewTranscript(),
		queue:      q,
		opts:       opts,
	}
}

func (s *Service) Transcript() *conversation.Transcript {
	return s.transcript
}

func (s *Service) State() State {
	return State(s.state.Load())
}

func (s *Service) setState(state State) {
	prev := State(s.state.Swap(int32(state)))
	slog.Debug("Dispatch state changed", "from", prev, "to", state)
}

// Handle mediates one utterance to completion. Blank utterances are ignored and a
// call made while another loop is in flight fails with ErrBusy. Model and action
// failures end in the apology turn and are not returned.
func (s *Service) Handle(ctx context.Context, utterance string) (*Exchange, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return &Exchange{Outcome: OutcomeIgnored}, nil
	}

	if !s.flight.TryLock() {
		return nil, ErrBusy
	}
	defer s.flight.Unlock()

	return s.dispatch(ctx, text), nil
}

func (s *Service) dispatch(ctx context.Context, text string) *Exchange {
	defer s.setState(StateIdle)

	start := time.Now()

	s.transcript.Append(conversation.TextTurn(conversation.RoleUser, text))
	s.setState(StateAwaitingFirstResponse)

	reply, err := s.roundTrip(ctx)
	if err != nil {
		return s.fail(&Exchange{}, err)
	}

	call, ok := reply.FirstCall()
	if !ok {
		s.transcript.Append(conversation.TextTurn(conversation.RoleModel, reply.Text))

		slog.Debug("Exchange completed", "outcome", OutcomeReplied, "duration", time.Since(start))

		return &Exchange{Outcome: OutcomeReplied, Reply: reply.Text}
	}

	if len(reply.Calls) > 1 {
		slog.Warn("Model requested several actions, only the first is executed",
			"action", call.Name,
			"dropped", pie.Map(reply.Calls[1:], func(c conversation.FunctionCall) string { return c.Name }),
		)
	}

	exchange := &Exchange{Action: call.Name}

	s.setState(StateExecutingAction)

	result, err := s.execute(ctx, call)
	if err != nil {
		return s.fail(exchange, err)
	}
	exchange.Result = result

	s.transcript.Append(conversation.FunctionResultTurn(conversation.FunctionResult{
		ID:      call.ID,
		Name:    call.Name,
		Args:    call.Args,
		Content: result,
	}))
	s.setState(StateAwaitingSecondResponse)

	reply, err = s.roundTrip(ctx)
	if err == nil && strings.TrimSpace(reply.Text) == "" {
		// Actions are not chained: a bare follow-up call has nothing to show.
		err = model.ErrEmptyReply
	}
	if err != nil {
		return s.fail(exchange, err)
	}

	s.transcript.Append(conversation.TextTurn(conversation.RoleModel, reply.Text))

	exchange.Outcome = OutcomeActionReplied
	exchange.Reply = reply.Text

	slog.Debug("Exchange completed",
		"outcome", exchange.Outcome,
		"action", exchange.Action,
		"duration", time.Since(start),
	)

	return exchange
}

func (s *Service) roundTrip(ctx context.Context) (*model.Reply, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reply, err := s.client.Generate(ctx, &model.Request{
		SystemInstruction: s.opts.SystemInstruction,
		Turns:             s.transcript.Turns(),
		Tools:             s.catalog.DescribeAll(),
	})
	if err != nil {
		return nil, err
	}

	if reply == nil || (len(reply.Calls) == 0 && strings.TrimSpace(reply.Text) == "") {
		return nil, model.ErrEmptyReply
	}

	return reply, nil
}

// execute resolves the call to an action result. Unknown actions and invalid
// arguments become results for the model; handler errors and panics are returned.
func (s *Service) execute(ctx context.Context, call conversation.FunctionCall) (result string, err error) {
	action, ok := s.catalog.Lookup(call.Name)
	if !ok {
		slog.Warn("Model requested an unknown action", "action", call.Name)
		return UnknownActionResult, nil
	}

	args, err := action.Validate(call.Args)
	if err != nil {
		var validationErr *registry.ValidationError
		if errors.As(err, &validationErr) {
			slog.Warn("Model sent invalid action arguments", "action", call.Name, "error", err)
			return invalidArgumentsResult(validationErr), nil
		}
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = oops.In("assistant").With("action", call.Name).Errorf("action panicked: %v", r)
		}
	}()

	result, err = action.Handler(ctx, args)
	if err != nil {
		return "", oops.In("assistant").With("action", call.Name).Wrapf(err, "action failed")
	}

	slog.Info("Action executed",
		"action", call.Name,
		"result", result,
		"telegram", true,
	)

	return result, nil
}

func invalidArgumentsResult(err *registry.ValidationError) string {
	reason := err.Reason
	if err.Field != "" {
		reason = err.Field + " " + reason
	}

	return fmt.Sprintf("⚠️ Invalid arguments for %s: %s", err.Action, reason)
}

func (s *Service) fail(exchange *Exchange, err error) *Exchange {
	slog.Error("Dispatch failed",
		"action", exchange.Action,
		"state", s.State(),
		"error", err,
	)

	s.transcript.Append(conversation.TextTurn(conversation.RoleModel, ApologyText))

	exchange.Outcome = OutcomeFailed
	exchange.Reply = ApologyText

	return exchange
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.opts.Timeout)
}

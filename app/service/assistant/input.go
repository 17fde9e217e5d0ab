package assistant

import (
	"context"
	"errors"
	"strings"

	"maven/app/service/queue"
)

// Submit queues the utterance behind earlier submissions and waits for its exchange.
func (s *Service) Submit(ctx context.Context, utterance string) (*Exchange, error) {
	if strings.TrimSpace(utterance) == "" {
		return &Exchange{Outcome: OutcomeIgnored}, nil
	}

	job := Job{
		ctx:       ctx,
		utterance: utterance,
		reply:     make(chan jobResult, 1),
	}

	if err := s.queue.Add(job); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			return nil, ErrQueueFull
		case errors.Is(err, queue.ErrClosed):
			return nil, ErrClosed
		}
		return nil, err
	}

	select {
	case res := <-job.reply:
		return res.exchange, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Process runs a queued job. It waits for a loop started through Handle to finish
// rather than failing with ErrBusy. Jobs whose submitter gave up are skipped.
func (s *Service) Process(job Job) {
	if err := job.ctx.Err(); err != nil {
		job.reply <- jobResult{err: err}
		return
	}

	s.flight.Lock()
	defer s.flight.Unlock()

	text := strings.TrimSpace(job.utterance)
	job.reply <- jobResult{exchange: s.dispatch(job.ctx, text)}
}

// Jobs is the queue drained by the dispatch worker.
func (s *Service) Jobs() <-chan Job {
	return s.queue.Channel()
}

func (s *Service) SetInput(text string) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()

	s.input = text
}

func (s *Service) Input() string {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()

	return s.input
}

func (s *Service) takeInput() string {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()

	text := s.input
	s.input = ""

	return text
}

// SetCapture registers the voice capture that SendInput stops first.
func (s *Service) SetCapture(capture Capture) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	s.capture = capture
}

// SendInput stops voice capture, then submits and clears the input buffer.
// A blank buffer is left untouched and ignored.
func (s *Service) SendInput(ctx context.Context) (*Exchange, error) {
	s.captureMu.Lock()
	capture := s.capture
	s.captureMu.Unlock()

	if capture != nil {
		capture.Stop()
	}

	if strings.TrimSpace(s.Input()) == "" {
		return &Exchange{Outcome: OutcomeIgnored}, nil
	}

	return s.Submit(ctx, s.takeInput())
}

package engine

import (
	"context"
	"log/slog"

	"maven/app/service/assistant"

	"github.com/samber/do"
)

// Service is the single worker that drains assistant submissions in order.
type Service struct {
	assistantSvc *assistant.Service
}

func New(di *do.Injector) (*Service, error) {
	return NewService(do.MustInvoke[*assistant.Service](di)), nil
}

func NewService(assistantSvc *assistant.Service) *Service {
	return &Service{
		assistantSvc: assistantSvc,
	}
}

// Run processes jobs until ctx is done or the queue is closed.
func (s *Service) Run(ctx context.Context) {
	slog.Debug("Dispatch worker started")
	defer slog.Debug("Dispatch worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.assistantSvc.Jobs():
			if !ok {
				return
			}

			s.assistantSvc.Process(job)
		}
	}
}

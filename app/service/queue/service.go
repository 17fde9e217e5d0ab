package queue

import (
	"errors"
	"log/slog"
	"sync"

	"maven/app/config"

	"github.com/samber/do"
)

var (
	ErrFull   = errors.New("queue is full")
	ErrClosed = errors.New("queue is closed")
)

var _ do.Shutdownable = (*Service[struct{}])(nil)

// Service is a bounded FIFO drained by a single consumer.
type Service[T any] struct {
	mu     sync.RWMutex
	closed bool
	queue  chan T
}

func New[T any](di *do.Injector) (*Service[T], error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService[T](cfg.Assistant.QueueSize), nil
}

func NewService[T any](size int) *Service[T] {
	return &Service[T]{
		queue: make(chan T, size),
	}
}

// Add enqueues without blocking.
func (s *Service[T]) Add(item T) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	select {
	case s.queue <- item:
		return nil
	default:
		slog.Warn("Message queue is full", "size", cap(s.queue))
		return ErrFull
	}
}

func (s *Service[T]) Channel() <-chan T {
	return s.queue
}

func (s *Service[T]) Len() int {
	return len(s.queue)
}

func (s *Service[T]) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}

	return nil
}

package workspace

import (
	"context"
	"log/slog"
	"time"
)

func (s *Service) StartPomodoro() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pomodoro.Active {
		return "⏰ The Pomodoro timer is already running."
	}
	s.pomodoro.Active = true

	return "🍅 Pomodoro started! Time to focus for 25 minutes."
}

func (s *Service) PausePomodoro() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pomodoro.Active {
		return "⏰ The Pomodoro timer is not running."
	}
	s.pomodoro.Active = false

	return "⏸️ Pomodoro paused."
}

func (s *Service) ResetPomodoro() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pomodoro.Active = false
	s.pomodoro.Remaining = pomodoroLength

	return "🔄 Pomodoro timer has been reset."
}

// tickPomodoro advances a running timer by one second. A finished session is
// counted and the timer rearmed.
func (s *Service) tickPomodoro(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pomodoro.Active {
		return
	}

	s.pomodoro.Remaining -= time.Second
	if s.pomodoro.Remaining > 0 {
		return
	}

	s.pomodoro.Active = false
	s.pomodoro.Remaining = pomodoroLength
	s.pomodoro.Sessions++

	slog.Info("Pomodoro session completed! 🍅",
		"sessions", s.pomodoro.Sessions,
		"telegram", true,
	)

	if err := s.save(ctx, keyPomodoro, s.pomodoro.Sessions); err != nil {
		slog.Error("Failed to persist pomodoro sessions", "error", err)
	}
}

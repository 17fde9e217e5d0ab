package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/elliotchance/pie/v2"
)

func (s *Service) AddHabit(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.habitIndex(name) >= 0 {
		return fmt.Sprintf("⚠️ A habit named \"%s\" already exists.", name), nil
	}

	habits := append(slices.Clone(s.habits), Habit{
		ID:      s.nextID(),
		Name:    strings.TrimSpace(name),
		History: []HabitDay{},
	})
	if err := s.save(ctx, keyHabits, habits); err != nil {
		return "", err
	}
	s.habits = habits

	return fmt.Sprintf("💪 New habit added: \"%s\". Let's get started!", name), nil
}

// CompleteHabit extends the streak when the habit was last done yesterday and restarts it otherwise.
func (s *Service) CompleteHabit(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.habitIndex(name)
	if index < 0 {
		return fmt.Sprintf("⚠️ Could not find a habit named \"%s\".", name), nil
	}

	now := s.now()
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	habit := s.habits[index]
	if habit.LastCompleted == today {
		return fmt.Sprintf("👍 You've already completed the habit \"%s\" today!", name), nil
	}

	if habit.LastCompleted == yesterday {
		habit.Streak++
	} else {
		habit.Streak = 1
	}
	habit.LastCompleted = today
	habit.History = append(slices.Clone(habit.History), HabitDay{Date: today, Completed: true})

	habits := slices.Clone(s.habits)
	habits[index] = habit
	if err := s.save(ctx, keyHabits, habits); err != nil {
		return "", err
	}
	s.habits = habits

	return fmt.Sprintf("🎉 Great job! You've completed \"%s\" for today. Current streak: %d days.", name, habit.Streak), nil
}

func (s *Service) DeleteHabit(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.habitIndex(name) < 0 {
		return fmt.Sprintf("⚠️ Could not find a habit named \"%s\".", name), nil
	}

	habits := pie.Filter(s.habits, func(h Habit) bool {
		return !strings.EqualFold(h.Name, name)
	})
	if err := s.save(ctx, keyHabits, habits); err != nil {
		return "", err
	}
	s.habits = habits

	return fmt.Sprintf("🗑️ Habit \"%s\" has been deleted.", name), nil
}

func (s *Service) ListHabits() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.habits) == 0 {
		return "You are not tracking any habits yet."
	}

	return "Your current habits:\n" + bulletList(pie.Map(s.habits, func(h Habit) string {
		return fmt.Sprintf("%s (Streak: %d days)", h.Name, h.Streak)
	}))
}

func (s *Service) habitIndex(name string) int {
	return pie.FindFirstUsing(s.habits, func(h Habit) bool {
		return strings.EqualFold(h.Name, name)
	})
}

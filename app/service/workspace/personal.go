package workspace

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
)

// AddJournalEntry appends to the entry of date, today when empty, or starts a new one.
func (s *Service) AddJournalEntry(ctx context.Context, content, date string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == "" {
		date = s.today()
	}

	index := pie.FindFirstUsing(s.journal, func(e JournalEntry) bool { return e.Date == date })

	if index >= 0 {
		journal := slices.Clone(s.journal)
		journal[index].Content += "\n\n" + content
		if err := s.save(ctx, keyJournal, journal); err != nil {
			return "", err
		}
		s.journal = journal

		return fmt.Sprintf("✍️ Added more thoughts to your journal entry for %s.", date), nil
	}

	journal := append([]JournalEntry{{
		ID:        uuid.NewString(),
		Date:      date,
		Content:   content,
		CreatedAt: s.now(),
	}}, s.journal...)
	if err := s.save(ctx, keyJournal, journal); err != nil {
		return "", err
	}
	s.journal = journal

	return fmt.Sprintf("📖 Your journal entry for %s has been saved.", date), nil
}

func (s *Service) AddGoal(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := append(slices.Clone(s.goals), Goal{ID: s.nextID(), Text: text})
	if err := s.save(ctx, keyGoals, goals); err != nil {
		return "", err
	}
	s.goals = goals

	return fmt.Sprintf("🏆 New goal set: \"%s\"", text), nil
}

// LogMood records today's mood, replacing an earlier entry for the same day.
func (s *Service) LogMood(ctx context.Context, mood string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	moods := pie.Filter(s.moods, func(e MoodEntry) bool { return e.Date != today })
	moods = append(moods, MoodEntry{ID: s.nextID(), Mood: mood, Date: today})

	if err := s.save(ctx, keyMood, moods); err != nil {
		return "", err
	}
	s.moods = moods

	return fmt.Sprintf("😊 Mood logged for today: %s.", mood), nil
}

func (s *Service) AddExpense(ctx context.Context, description string, amount float64, category string) (string, error) {
	if category == "" {
		category = defaultExpenseCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expenses := append([]Expense{{
		ID:          s.nextID(),
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        s.now(),
	}}, s.expenses...)
	if err := s.save(ctx, keyExpenses, expenses); err != nil {
		return "", err
	}
	s.expenses = expenses

	return fmt.Sprintf("💸 Expense logged: $%s for \"%s\".", strconv.FormatFloat(amount, 'f', -1, 64), description), nil
}

func (s *Service) AddPersonalQuote(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := append(slices.Clone(s.quotes), Quote{ID: s.nextID(), Text: text})
	if err := s.save(ctx, keyQuotes, quotes); err != nil {
		return "", err
	}
	s.quotes = quotes

	return "✨ Quote added to your collection.", nil
}

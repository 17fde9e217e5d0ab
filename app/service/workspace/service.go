package workspace

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"maven/app/service/store"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ do.Shutdownable = (*Service)(nil)

// Store is the persistence the workspace writes every state slice through.
type Store interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	PutJSON(ctx context.Context, key string, v any) error
	PutBlob(ctx context.Context, key string, blob store.Blob) error
	GetBlob(ctx context.Context, key string) (*store.Blob, bool, error)
	DeleteBlob(ctx context.Context, key string) error
}

// Service owns the productivity state: notes, tasks, board, habits and the rest.
// Every mutation goes through a method that persists the changed slice.
type Service struct {
	store Store
	now   func() time.Time
	pick  func(n int) int

	mu           sync.Mutex
	lastID       int64
	activePageID string

	pages           []Page
	tasks           []Task
	events          []CalendarEvent
	kanban          Kanban
	quickNotes      []QuickNote
	habits          []Habit
	quotes          []Quote
	moods           []MoodEntry
	expenses        []Expense
	goals           []Goal
	journal         []JournalEntry
	decisionOptions []string
	decisionResult  string
	pomodoro        Pomodoro
	classes         []Class
	students        []Student
	attendance      Attendance

	ticker *cron.Cron
}

func New(di *do.Injector) (*Service, error) {
	ctx := do.MustInvoke[context.Context](di)
	st := do.MustInvoke[*store.Service](di)

	svc, err := NewService(ctx, st, time.Now)
	if err != nil {
		return nil, err
	}

	if err = svc.startTicker(); err != nil {
		return nil, err
	}

	return svc, nil
}

// NewService loads the persisted state. The pomodoro ticker is not started.
func NewService(ctx context.Context, st Store, now func() time.Time) (*Service, error) {
	s := &Service{
		store:      st,
		now:        now,
		pick:       rand.IntN,
		kanban:     defaultKanban(),
		attendance: Attendance{},
		pomodoro: Pomodoro{
			Remaining: pomodoroLength,
		},
	}

	loaders := []struct {
		key string
		ptr any
	}{
		{keyPages, &s.pages},
		{keyTasks, &s.tasks},
		{keyEvents, &s.events},
		{keyKanban, &s.kanban},
		{keyQuickNotes, &s.quickNotes},
		{keyHabits, &s.habits},
		{keyQuotes, &s.quotes},
		{keyMood, &s.moods},
		{keyExpenses, &s.expenses},
		{keyGoals, &s.goals},
		{keyJournal, &s.journal},
		{keyDecisionOptions, &s.decisionOptions},
		{keyDecisionResult, &s.decisionResult},
		{keyPomodoro, &s.pomodoro.Sessions},
		{keyClasses, &s.classes},
		{keyStudents, &s.students},
		{keyAttendance, &s.attendance},
	}

	for _, loader := range loaders {
		if _, err := st.GetJSON(ctx, loader.key, loader.ptr); err != nil {
			return nil, oops.In("workspace").With("key", loader.key).Wrapf(err, "failed to load state")
		}
	}

	slog.Debug("Workspace loaded",
		"pages", len(s.pages),
		"tasks", len(s.tasks),
		"habits", len(s.habits),
	)

	return s, nil
}

func (s *Service) startTicker() error {
	s.ticker = cron.New()

	if _, err := s.ticker.AddFunc("@every 1s", func() {
		s.tickPomodoro(context.Background())
	}); err != nil {
		return oops.In("workspace").Errorf("failed to schedule pomodoro ticker: %w", err)
	}

	s.ticker.Start()

	return nil
}

// nextID hands out millisecond ids that stay unique within a burst.
func (s *Service) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	return id
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

func (s *Service) save(ctx context.Context, key string, v any) error {
	if err := s.store.PutJSON(ctx, key, v); err != nil {
		return oops.In("workspace").With("key", key).Wrapf(err, "failed to persist state")
	}

	return nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	kanban := s.kanban
	for _, col := range kanban.columns() {
		col.Items = slices.Clone(col.Items)
	}

	habits := make([]Habit, len(s.habits))
	for i, h := range s.habits {
		h.History = slices.Clone(h.History)
		habits[i] = h
	}

	return Snapshot{
		Pages:           slices.Clone(s.pages),
		ActivePageID:    s.activePageID,
		Tasks:           slices.Clone(s.tasks),
		Events:          slices.Clone(s.events),
		Kanban:          kanban,
		QuickNotes:      slices.Clone(s.quickNotes),
		Habits:          habits,
		Quotes:          slices.Clone(s.quotes),
		Moods:           slices.Clone(s.moods),
		Expenses:        slices.Clone(s.expenses),
		Goals:           slices.Clone(s.goals),
		Journal:         slices.Clone(s.journal),
		Pomodoro:        s.pomodoro,
		DecisionOptions: slices.Clone(s.decisionOptions),
		DecisionResult:  s.decisionResult,
		Classes:         slices.Clone(s.classes),
		Students:        slices.Clone(s.students),
		Attendance:      s.attendance.clone(),
	}
}

func (s *Service) Shutdown() error {
	if s.ticker != nil {
		<-s.ticker.Stop().Done()
	}

	return nil
}

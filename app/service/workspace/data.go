package workspace

import "time"

// Storage keys, shared with the browser build of the app.
const (
	keyPages           = "ai-notes-pages"
	keyTasks           = "maven-tasks"
	keyKanban          = "maven-kanban"
	keyQuickNotes      = "maven-notes"
	keyEvents          = "maven-events"
	keyHabits          = "maven-habits"
	keyQuotes          = "maven-quotes"
	keyMood            = "maven-mood"
	keyExpenses        = "maven-expenses"
	keyGoals           = "maven-goals"
	keyPomodoro        = "maven-pomodoro-sessions"
	keyDecisionOptions = "maven-decision-options"
	keyDecisionResult  = "maven-decision-result"
	keyJournal         = "maven-journal-entries"
	keyClasses         = "maven-classes"
	keyStudents        = "maven-students"
	keyAttendance      = "maven-attendance"
)

const (
	dateLayout = "2006-01-02"

	defaultPageTitle       = "Untitled Page"
	defaultExpenseCategory = "General"

	pomodoroLength = 25 * time.Minute
)

type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	BannerKey string    `json:"bannerUrl,omitempty"`
}

type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type CalendarEvent struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

type KanbanItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type KanbanColumn struct {
	Name  string       `json:"name"`
	Items []KanbanItem `json:"items"`
}

// Kanban columns in board order.
type Kanban struct {
	Todo     KanbanColumn `json:"todo"`
	Progress KanbanColumn `json:"progress"`
	Done     KanbanColumn `json:"done"`
}

func defaultKanban() Kanban {
	return Kanban{
		Todo:     KanbanColumn{Name: "To Do", Items: []KanbanItem{}},
		Progress: KanbanColumn{Name: "In Progress", Items: []KanbanItem{}},
		Done:     KanbanColumn{Name: "Done", Items: []KanbanItem{}},
	}
}

func (k *Kanban) columns() []*KanbanColumn {
	return []*KanbanColumn{&k.Todo, &k.Progress, &k.Done}
}

type QuickNote struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type HabitDay struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type Habit struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Streak        int        `json:"streak"`
	LastCompleted string     `json:"lastCompleted,omitempty"`
	History       []HabitDay `json:"history"`
}

type Quote struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type MoodEntry struct {
	ID   int64  `json:"id"`
	Mood string `json:"mood"`
	Date string `json:"date"`
}

type Expense struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type Goal struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type JournalEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Pomodoro struct {
	Remaining time.Duration `json:"remaining"`
	Active    bool          `json:"active"`
	Sessions  int           `json:"sessions"`
}

// Snapshot is a read-only copy of the whole workspace.
type Snapshot struct {
	Pages           []Page          `json:"pages"`
	ActivePageID    string          `json:"activePageId,omitempty"`
	Tasks           []Task          `json:"tasks"`
	Events          []CalendarEvent `json:"events"`
	Kanban          Kanban          `json:"kanban"`
	QuickNotes      []QuickNote     `json:"quickNotes"`
	Habits          []Habit         `json:"habits"`
	Quotes          []Quote         `json:"quotes"`
	Moods           []MoodEntry     `json:"moods"`
	Expenses        []Expense       `json:"expenses"`
	Goals           []Goal          `json:"goals"`
	Journal         []JournalEntry  `json:"journal"`
	Pomodoro        Pomodoro        `json:"pomodoro"`
	DecisionOptions []string        `json:"decisionOptions"`
	DecisionResult  string          `json:"decisionResult"`
	Classes         []Class         `json:"classes"`
	Students        []Student       `json:"students"`
	Attendance      Attendance      `json:"attendance"`
}

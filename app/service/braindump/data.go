package braindump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"
)

var (
	ErrEmptyInput = errors.New("brain dump is empty")
	// ErrMalformed means the model reply did not match the extraction shape.
	ErrMalformed      = errors.New("malformed extraction")
	ErrNoSuchItem     = errors.New("no such item")
	ErrNothingPending = errors.New("no pending extraction")
)

// FailureMessage is shown to the user for any failed extraction.
const FailureMessage = "Sorry, I couldn't process that. The AI might be unavailable or the request was invalid. Please try again."

type Category string

const (
	CategoryTasks      Category = "tasks"
	CategoryEvents     Category = "events"
	CategoryQuickNotes Category = "quickNotes"
	CategoryNewNotes   Category = "newNotes"
)

type Task struct {
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

type Event struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Selected bool   `json:"selected"`
}

type QuickNote struct {
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

type NewNote struct {
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Selected bool   `json:"selected"`
}

// Extraction is the categorized result of one brain dump awaiting confirmation.
type Extraction struct {
	Tasks      []Task      `json:"tasks"`
	Events     []Event     `json:"events"`
	QuickNotes []QuickNote `json:"quickNotes"`
	NewNotes   []NewNote   `json:"newNotes"`
}

// Toggle flips the selection of one item.
func (e *Extraction) Toggle(category Category, index int) error {
	var flag *bool

	switch category {
	case CategoryTasks:
		if index >= 0 && index < len(e.Tasks) {
			flag = &e.Tasks[index].Selected
		}
	case CategoryEvents:
		if index >= 0 && index < len(e.Events) {
			flag = &e.Events[index].Selected
		}
	case CategoryQuickNotes:
		if index >= 0 && index < len(e.QuickNotes) {
			flag = &e.QuickNotes[index].Selected
		}
	case CategoryNewNotes:
		if index >= 0 && index < len(e.NewNotes) {
			flag = &e.NewNotes[index].Selected
		}
	}

	if flag == nil {
		return fmt.Errorf("%w: %s[%d]", ErrNoSuchItem, category, index)
	}

	*flag = !*flag

	return nil
}

func (e *Extraction) Len() int {
	return len(e.Tasks) + len(e.Events) + len(e.QuickNotes) + len(e.NewNotes)
}

func (e *Extraction) Selected() int {
	return len(pie.Filter(e.Tasks, func(t Task) bool { return t.Selected })) +
		len(pie.Filter(e.Events, func(ev Event) bool { return ev.Selected })) +
		len(pie.Filter(e.QuickNotes, func(n QuickNote) bool { return n.Selected })) +
		len(pie.Filter(e.NewNotes, func(n NewNote) bool { return n.Selected }))
}

func (e *Extraction) clone() *Extraction {
	return &Extraction{
		Tasks:      append([]Task(nil), e.Tasks...),
		Events:     append([]Event(nil), e.Events...),
		QuickNotes: append([]QuickNote(nil), e.QuickNotes...),
		NewNotes:   append([]NewNote(nil), e.NewNotes...),
	}
}

// Remaining drops the first count selected items in commit order. It is what
// is left to commit after a commit failed having added count items.
func (e *Extraction) Remaining(count int) *Extraction {
	result := &Extraction{}

	for _, task := range e.Tasks {
		if task.Selected && count > 0 {
			count--
			continue
		}
		result.Tasks = append(result.Tasks, task)
	}

	for _, event := range e.Events {
		if event.Selected && count > 0 {
			count--
			continue
		}
		result.Events = append(result.Events, event)
	}

	for _, note := range e.QuickNotes {
		if note.Selected && count > 0 {
			count--
			continue
		}
		result.QuickNotes = append(result.QuickNotes, note)
	}

	for _, note := range e.NewNotes {
		if note.Selected && count > 0 {
			count--
			continue
		}
		result.NewNotes = append(result.NewNotes, note)
	}

	return result
}

// Message is the confirmation shown after a commit.
func Message(count int) string {
	return fmt.Sprintf("%d items have been added to your workspace!", count)
}

// reply is the wire shape the model must produce.
type reply struct {
	Tasks      []string     `json:"tasks" validate:"dive,required"`
	Events     []replyEvent `json:"events" validate:"dive"`
	QuickNotes []string     `json:"quickNotes" validate:"dive,required"`
	NewNotes   []replyNote  `json:"newNotes" validate:"dive"`
}

type replyEvent struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Time  string `json:"time" validate:"required,datetime=15:04"`
}

type replyNote struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// trim strips surrounding whitespace so blank items fail the required rules.
func (r *reply) trim() {
	r.Tasks = pie.Map(r.Tasks, strings.TrimSpace)
	r.QuickNotes = pie.Map(r.QuickNotes, strings.TrimSpace)

	for i := range r.Events {
		r.Events[i].Title = strings.TrimSpace(r.Events[i].Title)
		r.Events[i].Date = strings.TrimSpace(r.Events[i].Date)
		r.Events[i].Time = strings.TrimSpace(r.Events[i].Time)
	}

	for i := range r.NewNotes {
		r.NewNotes[i].Title = strings.TrimSpace(r.NewNotes[i].Title)
		r.NewNotes[i].Content = strings.TrimSpace(r.NewNotes[i].Content)
	}
}

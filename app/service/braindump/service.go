package braindump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"maven/app/client/model"
	"maven/app/service/conversation"
	"maven/app/service/workspace"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const promptTemplate = `You are a productivity assistant for an app called Maven. Analyze the following unstructured text, which is a 'brain dump' from a user. Your goal is to extract actionable items and categorize them.

- Identify specific to-do items and list them as tasks.
- Identify calendar events. Infer dates and times where possible. If a specific date isn't mentioned (e.g., "tomorrow", "next Wednesday"), calculate the date based on today's date, which is %s. If no time is mentioned, use a sensible default like "12:00". Format dates as YYYY-MM-DD and times as HH:MM (24-hour).
- Identify short, fleeting thoughts or reminders and list them as quick notes.
- Identify larger, more substantial ideas that should become new, separate notes. For these, provide a concise title and, if possible, some initial content.

The user's text is:
---
%s
---

Structure your response strictly as a JSON object matching the provided schema. If a category has no items, you can omit the key or provide an empty array.`

var responseSchema = &model.Schema{
	Type: model.SchemaObject,
	Properties: []model.Property{
		{Name: "tasks", Schema: &model.Schema{Type: model.SchemaArray, Items: &model.Schema{Type: model.SchemaString}}},
		{Name: "events", Schema: &model.Schema{Type: model.SchemaArray, Items: &model.Schema{
			Type: model.SchemaObject,
			Properties: []model.Property{
				{Name: "title", Schema: &model.Schema{Type: model.SchemaString}},
				{Name: "date", Schema: &model.Schema{Type: model.SchemaString, Description: "YYYY-MM-DD"}},
				{Name: "time", Schema: &model.Schema{Type: model.SchemaString, Description: "HH:MM, 24-hour"}},
			},
			Required: []string{"title", "date", "time"},
		}}},
		{Name: "quickNotes", Schema: &model.Schema{Type: model.SchemaArray, Items: &model.Schema{Type: model.SchemaString}}},
		{Name: "newNotes", Schema: &model.Schema{Type: model.SchemaArray, Items: &model.Schema{
			Type: model.SchemaObject,
			Properties: []model.Property{
				{Name: "title", Schema: &model.Schema{Type: model.SchemaString}},
				{Name: "content", Schema: &model.Schema{Type: model.SchemaString}},
			},
			Required: []string{"title"},
		}}},
	},
}

// Workspace is the set of mutations a commit fans out to.
type Workspace interface {
	AddTask(ctx context.Context, text string) (string, error)
	AddEvent(ctx context.Context, title, date, clock string) (string, error)
	AddQuickNote(ctx context.Context, text string) (string, error)
	NewPage(ctx context.Context, title, content string) (workspace.Page, error)
}

type Service struct {
	client   model.Client
	ws       Workspace
	now      func() time.Time
	validate *validator.Validate
	session  *Session
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[model.Client](di),
		do.MustInvoke[*workspace.Service](di),
		time.Now,
	), nil
}

func NewService(client model.Client, ws Workspace, now func() time.Time) *Service {
	return &Service{
		client:   client,
		ws:       ws,
		now:      now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		session:  &Session{},
	}
}

// Session holds the extraction currently awaiting confirmation.
func (s *Service) Session() *Session {
	return s.session
}

// Extract asks the model to categorize free text. Every item starts selected.
// A reply that does not match the expected shape yields ErrMalformed and no items.
func (s *Service) Extract(ctx context.Context, text string) (*Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	res, err := s.client.Generate(ctx, &model.Request{
		Turns: []conversation.Turn{
			conversation.TextTurn(conversation.RoleUser, fmt.Sprintf(promptTemplate, s.now().Format(time.DateOnly), text)),
		},
		ResponseSchema: responseSchema,
	})
	if err != nil {
		return nil, oops.In("braindump").Wrapf(err, "extraction request failed")
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, model.ErrEmptyReply)
	}

	parsed, err := s.parse(res.Text)
	if err != nil {
		slog.Warn("Brain dump reply rejected",
			"error", err,
			"reply", res.Text,
		)
		return nil, err
	}

	ext := &Extraction{
		Tasks: pie.Map(parsed.Tasks, func(t string) Task {
			return Task{Text: t, Selected: true}
		}),
		Events: pie.Map(parsed.Events, func(e replyEvent) Event {
			return Event{Title: e.Title, Date: e.Date, Time: e.Time, Selected: true}
		}),
		QuickNotes: pie.Map(parsed.QuickNotes, func(n string) QuickNote {
			return QuickNote{Text: n, Selected: true}
		}),
		NewNotes: pie.Map(parsed.NewNotes, func(n replyNote) NewNote {
			return NewNote{Title: n.Title, Content: n.Content, Selected: true}
		}),
	}

	slog.Info("Brain dump extracted",
		"tasks", len(ext.Tasks),
		"events", len(ext.Events),
		"quick_notes", len(ext.QuickNotes),
		"new_notes", len(ext.NewNotes),
	)

	return ext, nil
}

func (s *Service) parse(text string) (*reply, error) {
	body := model.StripFences(text)
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var parsed reply
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformed)
	}

	parsed.trim()

	if err := s.validate.Struct(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &parsed, nil
}

// Commit applies every selected item to the workspace and returns how many were added.
// On failure the count covers the items applied before it.
func (s *Service) Commit(ctx context.Context, ext *Extraction) (int, error) {
	if ext == nil {
		return 0, ErrNothingPending
	}

	var added int

	for _, task := range ext.Tasks {
		if !task.Selected {
			continue
		}
		if _, err := s.ws.AddTask(ctx, task.Text); err != nil {
			return added, oops.In("braindump").With("task", task.Text).Wrapf(err, "add task")
		}
		added++
	}

	for _, event := range ext.Events {
		if !event.Selected {
			continue
		}
		if _, err := s.ws.AddEvent(ctx, event.Title, event.Date, event.Time); err != nil {
			return added, oops.In("braindump").With("event", event.Title).Wrapf(err, "add event")
		}
		added++
	}

	for _, note := range ext.QuickNotes {
		if !note.Selected {
			continue
		}
		if _, err := s.ws.AddQuickNote(ctx, note.Text); err != nil {
			return added, oops.In("braindump").With("note", note.Text).Wrapf(err, "add quick note")
		}
		added++
	}

	for _, note := range ext.NewNotes {
		if !note.Selected {
			continue
		}
		if _, err := s.ws.NewPage(ctx, note.Title, note.Content); err != nil {
			return added, oops.In("braindump").With("title", note.Title).Wrapf(err, "create note")
		}
		added++
	}

	slog.Info("Brain dump committed",
		"added", added,
		"telegram", true,
	)

	return added, nil
}

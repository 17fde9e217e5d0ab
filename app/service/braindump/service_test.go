package braindump

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"maven/app/client/model/modeltest"
	"maven/app/service/store"
	"maven/app/service/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkspace struct {
	tasks      []string
	events     []string
	quickNotes []string
	pages      []string
	fail       error
}

func (w *fakeWorkspace) AddTask(_ context.Context, text string) (string, error) {
	if w.fail != nil {
		return "", w.fail
	}
	w.tasks = append(w.tasks, text)
	return "ok", nil
}

func (w *fakeWorkspace) AddEvent(_ context.Context, title, date, clock string) (string, error) {
	w.events = append(w.events, title+" "+date+" "+clock)
	return "ok", nil
}

func (w *fakeWorkspace) AddQuickNote(_ context.Context, text string) (string, error) {
	w.quickNotes = append(w.quickNotes, text)
	return "ok", nil
}

func (w *fakeWorkspace) NewPage(_ context.Context, title, content string) (workspace.Page, error) {
	w.pages = append(w.pages, title+": "+content)
	return workspace.Page{Title: title, Content: content}, nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.May, 1, 10, 30, 0, 0, time.Local)
}

const validReply = "```json\n" + `{
  "tasks": ["Buy milk", "Call the bank"],
  "events": [{"title": "Dentist", "date": "2024-05-02", "time": "12:00"}],
  "quickNotes": ["Idea: sunrise alarm"],
  "newNotes": [{"title": "Podcast concept", "content": "Weekly show about productivity."}]
}` + "\n```"

func TestExtractEmptyInput(t *testing.T) {
	fake := modeltest.New()
	svc := NewService(fake, &fakeWorkspace{}, fixedNow)

	_, err := svc.Extract(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, fake.Calls())
}

func TestExtract(t *testing.T) {
	fake := modeltest.New(modeltest.Text(validReply))
	svc := NewService(fake, &fakeWorkspace{}, fixedNow)

	ext, err := svc.Extract(context.Background(), "buy milk, call the bank, dentist tomorrow at noon")
	require.NoError(t, err)

	assert.Equal(t, []Task{{Text: "Buy milk", Selected: true}, {Text: "Call the bank", Selected: true}}, ext.Tasks)
	assert.Equal(t, []Event{{Title: "Dentist", Date: "2024-05-02", Time: "12:00", Selected: true}}, ext.Events)
	assert.Equal(t, []QuickNote{{Text: "Idea: sunrise alarm", Selected: true}}, ext.QuickNotes)
	assert.Equal(t, []NewNote{{Title: "Podcast concept", Content: "Weekly show about productivity.", Selected: true}}, ext.NewNotes)
	assert.Equal(t, 5, ext.Len())
	assert.Equal(t, 5, ext.Selected())

	req := fake.Requests()[0]
	require.Len(t, req.Turns, 1)
	assert.Contains(t, req.Turns[0].Text(), "today's date, which is 2024-05-01")
	assert.Contains(t, req.Turns[0].Text(), "---\nbuy milk, call the bank, dentist tomorrow at noon\n---")
	assert.NotNil(t, req.ResponseSchema)
	assert.Empty(t, req.Tools)
}

func TestExtractEmptyObject(t *testing.T) {
	fake := modeltest.New(modeltest.Text(`{"tasks": []}`))
	svc := NewService(fake, &fakeWorkspace{}, fixedNow)

	ext, err := svc.Extract(context.Background(), "nothing much")
	require.NoError(t, err)
	assert.Zero(t, ext.Len())
}

func TestExtractFailsClosed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: "Here are your tasks: buy milk"},
		{name: "array", reply: `["buy milk"]`},
		{name: "null", reply: "null"},
		{name: "wrong type", reply: `{"tasks": "buy milk"}`},
		{name: "unknown field", reply: `{"tasks": ["buy milk"], "reminders": ["x"]}`},
		{name: "empty task", reply: `{"tasks": ["buy milk", ""]}`},
		{name: "blank task", reply: `{"tasks": ["buy milk", "   "]}`},
		{name: "blank quick note", reply: `{"quickNotes": ["\t"]}`},
		{name: "blank event title", reply: `{"events": [{"title": " ", "date": "2024-05-02", "time": "12:00"}]}`},
		{name: "blank note title", reply: `{"newNotes": [{"title": "  ", "content": "text"}]}`},
		{name: "relative date", reply: `{"events": [{"title": "Dentist", "date": "tomorrow", "time": "12:00"}]}`},
		{name: "bad time", reply: `{"events": [{"title": "Dentist", "date": "2024-05-02", "time": "noon"}]}`},
		{name: "missing time", reply: `{"events": [{"title": "Dentist", "date": "2024-05-02"}]}`},
		{name: "untitled note", reply: `{"newNotes": [{"content": "text"}]}`},
		{name: "trailing data", reply: `{"tasks": ["a"]} {"tasks": ["b"]}`},
		{name: "truncated", reply: `{"tasks": ["a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := modeltest.New(modeltest.Text(tt.reply))
			svc := NewService(fake, &fakeWorkspace{}, fixedNow)

			ext, err := svc.Extract(context.Background(), "some brain dump")
			require.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, ext)
		})
	}
}

func TestExtractTrimsItems(t *testing.T) {
	fake := modeltest.New(modeltest.Text(`{"tasks": ["  buy milk "], "events": [{"title": " Dentist", "date": " 2024-05-02", "time": "09:30 "}]}`))
	svc := NewService(fake, &fakeWorkspace{}, fixedNow)

	ext, err := svc.Extract(context.Background(), "some brain dump")
	require.NoError(t, err)

	require.Len(t, ext.Tasks, 1)
	assert.Equal(t, "buy milk", ext.Tasks[0].Text)
	require.Len(t, ext.Events, 1)
	assert.Equal(t, Event{Title: "Dentist", Date: "2024-05-02", Time: "09:30", Selected: true}, ext.Events[0])
}

func TestExtractModelFailure(t *testing.T) {
	fake := modeltest.New(modeltest.Fail(errors.New("quota exceeded")))
	svc := NewService(fake, &fakeWorkspace{}, fixedNow)

	ext, err := svc.Extract(context.Background(), "some brain dump")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.Nil(t, ext)
}

func TestToggleAndCommit(t *testing.T) {
	fake := modeltest.New(modeltest.Text(validReply))
	ws := &fakeWorkspace{}
	svc := NewService(fake, ws, fixedNow)
	ctx := context.Background()

	ext, err := svc.Extract(ctx, "brain dump")
	require.NoError(t, err)

	require.NoError(t, ext.Toggle(CategoryTasks, 1))
	require.NoError(t, ext.Toggle(CategoryQuickNotes, 0))
	require.NoError(t, ext.Toggle(CategoryQuickNotes, 0))
	require.NoError(t, ext.Toggle(CategoryNewNotes, 0))
	assert.Equal(t, 3, ext.Selected())

	added, err := svc.Commit(ctx, ext)
	require.NoError(t, err)

	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"Buy milk"}, ws.tasks)
	assert.Equal(t, []string{"Dentist 2024-05-02 12:00"}, ws.events)
	assert.Equal(t, []string{"Idea: sunrise alarm"}, ws.quickNotes)
	assert.Empty(t, ws.pages)
	assert.Equal(t, "3 items have been added to your workspace!", Message(added))
}

func TestToggleRejectsUnknownItems(t *testing.T) {
	ext := &Extraction{Tasks: []Task{{Text: "a", Selected: true}}}

	assert.ErrorIs(t, ext.Toggle(CategoryTasks, 1), ErrNoSuchItem)
	assert.ErrorIs(t, ext.Toggle(CategoryTasks, -1), ErrNoSuchItem)
	assert.ErrorIs(t, ext.Toggle(CategoryEvents, 0), ErrNoSuchItem)
	assert.ErrorIs(t, ext.Toggle(Category("reminders"), 0), ErrNoSuchItem)
	assert.True(t, ext.Tasks[0].Selected)
}

func TestCommitFailure(t *testing.T) {
	ws := &fakeWorkspace{fail: errors.New("disk full")}
	svc := NewService(modeltest.New(), ws, fixedNow)

	added, err := svc.Commit(context.Background(), &Extraction{
		Tasks: []Task{{Text: "a", Selected: true}},
	})
	require.Error(t, err)
	assert.Zero(t, added)

	_, err = svc.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingPending)
}

func TestCommitIntoWorkspace(t *testing.T) {
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "maven.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Shutdown() })

	ws, err := workspace.NewService(ctx, st, fixedNow)
	require.NoError(t, err)

	svc := NewService(modeltest.New(modeltest.Text(validReply)), ws, fixedNow)

	ext, err := svc.Extract(ctx, "brain dump")
	require.NoError(t, err)

	added, err := svc.Commit(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	snapshot := ws.Snapshot()
	assert.Len(t, snapshot.Tasks, 2)
	assert.Len(t, snapshot.Events, 1)
	assert.Len(t, snapshot.QuickNotes, 1)
	require.Len(t, snapshot.Pages, 1)
	assert.Equal(t, "Podcast concept", snapshot.Pages[0].Title)
}

func TestSession(t *testing.T) {
	session := &Session{}

	_, ok := session.Pending()
	assert.False(t, ok)

	_, err := session.Toggle(CategoryTasks, 0)
	assert.ErrorIs(t, err, ErrNothingPending)

	session.Set(&Extraction{Tasks: []Task{{Text: "a", Selected: true}, {Text: "b", Selected: true}}})

	pending, ok := session.Pending()
	require.True(t, ok)
	pending.Tasks[0].Selected = false

	toggled, err := session.Toggle(CategoryTasks, 1)
	require.NoError(t, err)
	assert.Equal(t, []Task{{Text: "a", Selected: true}, {Text: "b", Selected: false}}, toggled.Tasks)

	taken, ok := session.Take()
	require.True(t, ok)
	assert.Equal(t, 1, taken.Selected())

	_, ok = session.Take()
	assert.False(t, ok)

	session.Set(&Extraction{})
	session.Discard()
	_, ok = session.Pending()
	assert.False(t, ok)
}

func TestRemaining(t *testing.T) {
	ext := &Extraction{
		Tasks:      []Task{{Text: "a", Selected: true}, {Text: "b"}, {Text: "c", Selected: true}},
		Events:     []Event{{Title: "Dentist", Selected: true}},
		QuickNotes: []QuickNote{{Text: "idea", Selected: true}},
	}

	rest := ext.Remaining(3)
	assert.Equal(t, []Task{{Text: "b"}}, rest.Tasks)
	assert.Empty(t, rest.Events)
	assert.Equal(t, []QuickNote{{Text: "idea", Selected: true}}, rest.QuickNotes)
	assert.Equal(t, 1, rest.Selected())

	assert.Equal(t, 4, ext.Remaining(0).Selected())
	assert.Zero(t, ext.Remaining(10).Selected())
}

package actions

import (
	"context"
	"fmt"

	"maven/app/client/model"
	"maven/app/service/registry"
	"maven/app/service/workspace"

	"github.com/samber/do"
)

type catalog struct {
	ws     *workspace.Service
	client model.Client
}

// NewRegistry builds the frozen action catalog on top of the workspace.
func NewRegistry(di *do.Injector) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	Register(reg, do.MustInvoke[*workspace.Service](di), do.MustInvoke[model.Client](di))
	reg.Freeze()

	return reg, nil
}

// Register adds every workspace action to reg. client serves the actions that
// generate content and may be nil.
func Register(reg *registry.Registry, ws *workspace.Service, client model.Client) {
	c := &catalog{ws: ws, client: client}

	for _, entry := range c.entries() {
		reg.Register(entry.spec, entry.handler)
	}
}

type entry struct {
	spec    registry.ActionSpec
	handler registry.Handler
}

func str(name, description string, required bool) registry.FieldSpec {
	return registry.FieldSpec{Name: name, Type: registry.TypeString, Required: required, Description: description}
}

func action(name, description string, params ...registry.FieldSpec) registry.ActionSpec {
	return registry.ActionSpec{Name: name, Description: description, Parameters: params}
}

// query adapts a read-only workspace method.
func query(fn func() string) registry.Handler {
	return func(context.Context, registry.Args) (string, error) {
		return fn(), nil
	}
}

// byText adapts a mutation taking a single string argument.
func byText(field string, fn func(ctx context.Context, text string) (string, error)) registry.Handler {
	return func(ctx context.Context, args registry.Args) (string, error) {
		return fn(ctx, args.String(field))
	}
}

func (c *catalog) entries() []entry {
	ws := c.ws

	return []entry{
		{
			action("addGoal", "Adds a new personal goal to the user's goal list.",
				str("goalText", "The content of the goal.", true)),
			byText("goalText", ws.AddGoal),
		},
		{
			action("logMood", "Logs the user's mood for the current day. Replaces any existing entry for today.",
				str("mood", "The user's mood. Can be an emoji or a word like 'Happy', 'Sad', etc. E.g., '😄', '😊', '😐', '😢', '😴'", true)),
			byText("mood", ws.LogMood),
		},
		{
			action("addExpense", "Adds a new expense to the expense tracker.",
				str("description", "What the expense was for.", true),
				registry.FieldSpec{Name: "amount", Type: registry.TypeNumber, Required: true, Description: "The amount of the expense."},
				str("category", "An optional category for the expense (e.g., Food, Transport).", false)),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.AddExpense(ctx, args.String("description"), args.Number("amount"), args.String("category"))
			},
		},
		{
			action("addPersonalQuote", "Adds a new quote to the user's personal collection.",
				str("quoteText", "The content of the quote.", true)),
			byText("quoteText", ws.AddPersonalQuote),
		},
		{
			action("addJournalEntry", "Adds a new journal entry for a specific date. If no date is provided, it uses today's date.",
				str("content", "The text content of the journal entry.", true),
				str("date", "Optional. The date for the entry in YYYY-MM-DD format. Defaults to today if not provided.", false)),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.AddJournalEntry(ctx, args.String("content"), args.String("date"))
			},
		},
		{
			action("createPlanAndNote", "Creates a detailed, structured plan for a given topic, project, or goal and saves it as a new note.",
				str("topic", "The subject or goal for which to create a plan. For example, 'launch a new podcast' or 'learn to cook'.", true)),
			byText("topic", c.createPlan),
		},
		{
			action("createWireframeAndNote", "Suggests a structural layout or wireframe for a user interface, webpage, or app screen based on a description, then saves it as a new note.",
				str("description", "A description of the screen or interface to be wireframed. For example, 'a login screen for a mobile app' or 'a product details page for an e-commerce site'.", true)),
			byText("description", c.createWireframe),
		},
		{
			action("addTask", "Adds a new task to the user's to-do list.",
				str("taskText", "The content of the task.", true)),
			byText("taskText", ws.AddTask),
		},
		{
			action("completeTask", "Marks a task as completed based on its text content.",
				str("taskText", "The text of the task to complete.", true)),
			byText("taskText", ws.CompleteTaskByText),
		},
		{
			action("deleteTask", "Deletes a task based on its text content.",
				str("taskText", "The text of the task to delete.", true)),
			byText("taskText", ws.DeleteTaskByText),
		},
		{
			action("listTasks", "Lists all current tasks, separated by completion status."),
			query(ws.ListTasks),
		},
		{
			action("addEvent", "Schedules a new event in the calendar.",
				str("title", "", true),
				str("date", "YYYY-MM-DD", true),
				str("time", "HH:MM", true)),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.AddEvent(ctx, args.String("title"), args.String("date"), args.String("time"))
			},
		},
		{
			action("createNewNote", "Creates a new, blank note page.",
				str("title", "", true)),
			func(ctx context.Context, args registry.Args) (string, error) {
				page, err := ws.NewPage(ctx, args.String("title"), "")
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("📝 Note created: \"%s\"", page.Title), nil
			},
		},
		{
			action("deleteNote", "Deletes a note based on its title.",
				str("noteTitle", "", true)),
			byText("noteTitle", ws.DeleteNoteByTitle),
		},
		{
			action("generateCreativeContent", "Generates creative content and appends it to the currently active note.",
				str("content", "", true)),
			byText("content", ws.AppendToActivePage),
		},
		{
			action("getDailyBriefing", "Provides a summary of the user's tasks and calendar events for the day."),
			query(ws.DailyBriefing),
		},
		{
			action("moveKanbanCard", "Moves a card on the Kanban board to a different column.",
				str("cardText", "", true),
				str("targetColumn", "The destination column: 'To Do', 'In Progress', or 'Done'.", true)),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.MoveKanbanCard(ctx, args.String("cardText"), args.String("targetColumn"))
			},
		},
		{
			action("addQuickNote", "Adds a new temporary note to the quick notes list.",
				str("noteText", "The content of the quick note.", true)),
			byText("noteText", ws.AddQuickNote),
		},
		{
			action("listQuickNotes", "Lists all current quick notes."),
			query(ws.ListQuickNotes),
		},
		{
			action("addHabit", "Adds a new habit to the habit tracker.",
				str("habitName", "The name of the habit to track.", true)),
			byText("habitName", ws.AddHabit),
		},
		{
			action("completeHabit", "Marks a habit as completed for today.",
				str("habitName", "The name of the habit to complete.", true)),
			byText("habitName", ws.CompleteHabit),
		},
		{
			action("deleteHabit", "Deletes a habit from the habit tracker.",
				str("habitName", "The name of the habit to delete.", true)),
			byText("habitName", ws.DeleteHabit),
		},
		{
			action("listHabits", "Lists all tracked habits and their current streaks."),
			query(ws.ListHabits),
		},
		{
			action("startPomodoro", "Starts the Pomodoro timer for a 25-minute session."),
			query(ws.StartPomodoro),
		},
		{
			action("pausePomodoro", "Pauses the currently running Pomodoro timer."),
			query(ws.PausePomodoro),
		},
		{
			action("resetPomodoro", "Resets the Pomodoro timer to 25 minutes and stops it."),
			query(ws.ResetPomodoro),
		},
		{
			action("addDecisionOption", "Adds a single option to the Random Decision Maker tool.",
				str("option", "The option to add.", true)),
			byText("option", ws.AddDecisionOption),
		},
		{
			action("addDecisionOptions", "Adds multiple options to the Random Decision Maker tool.",
				registry.FieldSpec{Name: "options", Type: registry.TypeStringArray, Required: true, Description: "An array of options to add."}),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.AddDecisionOptions(ctx, args.Strings("options"))
			},
		},
		{
			action("clearDecisionOptions", "Removes all options from the Random Decision Maker."),
			func(ctx context.Context, _ registry.Args) (string, error) {
				return ws.ClearDecisionOptions(ctx)
			},
		},
		{
			action("makeDecision", "Makes a random decision from the existing list of options. If new options are provided, it will use them instead.",
				registry.FieldSpec{Name: "options", Type: registry.TypeStringArray, Description: "An optional array of options to decide between."}),
			func(ctx context.Context, args registry.Args) (string, error) {
				return ws.MakeDecision(ctx, args.Strings("options"))
			},
		},
	}
}

package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/oops"
)

func (s *Service) AddEvent(ctx context.Context, title, date, clock string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := append(slices.Clone(s.events), CalendarEvent{
		ID:    s.nextID(),
		Title: title,
		Date:  date,
		Time:  clock,
	})
	if err := s.save(ctx, keyEvents, events); err != nil {
		return "", err
	}
	s.events = events

	return fmt.Sprintf("🗓️ Event added: \"%s\" on %s at %s.", title, date, clock), nil
}

func (s *Service) AddQuickNote(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := append(slices.Clone(s.quickNotes), QuickNote{
		ID:        s.nextID(),
		Text:      text,
		CreatedAt: s.now(),
	})
	if err := s.save(ctx, keyQuickNotes, notes); err != nil {
		return "", err
	}
	s.quickNotes = notes

	return "🗒️ Quick note added.", nil
}

func (s *Service) ListQuickNotes() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.quickNotes) == 0 {
		return "You have no quick notes."
	}

	return "Your quick notes:\n" + bulletList(pie.Map(s.quickNotes, func(n QuickNote) string { return n.Text }))
}

// AddKanbanCard appends a card to the column with the given display name.
func (s *Service) AddKanbanCard(ctx context.Context, column, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kanban := s.cloneKanban()
	target := kanban.column(column)
	if target == nil {
		return oops.In("workspace").With("column", column).Errorf("unknown kanban column")
	}

	target.Items = append(target.Items, KanbanItem{
		ID:   fmt.Sprintf("item-%d", s.nextID()),
		Text: text,
	})
	if err := s.save(ctx, keyKanban, kanban); err != nil {
		return err
	}
	s.kanban = kanban

	return nil
}

// MoveKanbanCard moves the first card containing cardText, case-insensitively, to target.
func (s *Service) MoveKanbanCard(ctx context.Context, cardText, target string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kanban := s.cloneKanban()
	needle := strings.ToLower(cardText)

	var (
		card   KanbanItem
		source *KanbanColumn
		index  = -1
	)
	for _, col := range kanban.columns() {
		index = pie.FindFirstUsing(col.Items, func(item KanbanItem) bool {
			return strings.Contains(strings.ToLower(item.Text), needle)
		})
		if index >= 0 {
			card = col.Items[index]
			source = col
			break
		}
	}

	if source == nil {
		return fmt.Sprintf("⚠️ Could not find a card matching \"%s\".", cardText), nil
	}

	dest := kanban.column(target)
	if dest == nil {
		return fmt.Sprintf("⚠️ Invalid target column \"%s\". Please use 'To Do', 'In Progress', or 'Done'.", target), nil
	}

	source.Items = slices.Delete(source.Items, index, index+1)
	dest.Items = append(dest.Items, card)

	if err := s.save(ctx, keyKanban, kanban); err != nil {
		return "", err
	}
	s.kanban = kanban

	return fmt.Sprintf("✅ Moved card \"%s\" to \"%s\".", card.Text, target), nil
}

func (s *Service) cloneKanban() Kanban {
	kanban := s.kanban
	for _, col := range kanban.columns() {
		col.Items = slices.Clone(col.Items)
	}

	return kanban
}

func (k *Kanban) column(name string) *KanbanColumn {
	for _, col := range k.columns() {
		if col.Name == name {
			return col
		}
	}

	return nil
}

// DailyBriefing summarizes pending tasks and today's events.
func (s *Service) DailyBriefing() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := now.Format(dateLayout)

	pending := pie.Filter(s.tasks, func(t Task) bool { return !t.Completed })
	events := pie.Filter(s.events, func(e CalendarEvent) bool { return e.Date == today })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 **Daily Briefing for %s**\n\n", now.Format("Monday, January 2"))

	if len(pending) > 0 {
		sb.WriteString("📝 **Top Tasks:**\n")
		sb.WriteString(bulletList(pie.Map(pending, func(t Task) string { return t.Text })))
	} else {
		sb.WriteString("👍 No pending tasks for today. Great job!")
	}

	if len(events) > 0 {
		sb.WriteString("\n\n🗓️ **Today's Events:**\n")
		sb.WriteString(bulletList(pie.Map(events, func(e CalendarEvent) string {
			return e.Title + " at " + e.Time
		})))
	} else {
		sb.WriteString("\n\n🎉 No events scheduled for today.")
	}

	return sb.String()
}

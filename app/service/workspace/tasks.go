package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/elliotchance/pie/v2"
)

func (s *Service) AddTask(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "⚠️ Could not add an empty task.", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := append(slices.Clone(s.tasks), Task{
		ID:        s.nextID(),
		Text:      text,
		CreatedAt: s.now(),
	})
	if err := s.save(ctx, keyTasks, tasks); err != nil {
		return "", err
	}
	s.tasks = tasks

	return fmt.Sprintf("✅ Task added: \"%s\"", text), nil
}

// CompleteTaskByText completes every incomplete task containing text, case-insensitively.
func (s *Service) CompleteTaskByText(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(text)
	found := false

	tasks := slices.Clone(s.tasks)
	for i := range tasks {
		if !tasks[i].Completed && strings.Contains(strings.ToLower(tasks[i].Text), needle) {
			tasks[i].Completed = true
			found = true
		}
	}

	if !found {
		return fmt.Sprintf("⚠️ Could not find an incomplete task matching \"%s\".", text), nil
	}

	if err := s.save(ctx, keyTasks, tasks); err != nil {
		return "", err
	}
	s.tasks = tasks

	return fmt.Sprintf("✅ Marked task \"%s\" as completed.", text), nil
}

func (s *Service) DeleteTaskByText(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(text)
	remaining := pie.Filter(s.tasks, func(t Task) bool {
		return !strings.Contains(strings.ToLower(t.Text), needle)
	})

	if len(remaining) == len(s.tasks) {
		return fmt.Sprintf("⚠️ Could not find a task matching \"%s\".", text), nil
	}

	if err := s.save(ctx, keyTasks, remaining); err != nil {
		return "", err
	}
	s.tasks = remaining

	return fmt.Sprintf("🗑️ Deleted task matching \"%s\".", text), nil
}

func (s *Service) ToggleTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := pie.FindFirstUsing(s.tasks, func(t Task) bool { return t.ID == id })
	if index < 0 {
		return nil
	}

	tasks := slices.Clone(s.tasks)
	tasks[index].Completed = !tasks[index].Completed
	if err := s.save(ctx, keyTasks, tasks); err != nil {
		return err
	}
	s.tasks = tasks

	return nil
}

func (s *Service) ListTasks() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return "You have no tasks."
	}

	incomplete := pie.Filter(s.tasks, func(t Task) bool { return !t.Completed })
	completed := pie.Filter(s.tasks, func(t Task) bool { return t.Completed })

	var sb strings.Builder
	if len(incomplete) > 0 {
		sb.WriteString("📝 Incomplete Tasks:\n")
		sb.WriteString(bulletList(pie.Map(incomplete, func(t Task) string { return t.Text })))
	}
	if len(completed) > 0 {
		sb.WriteString("\n\n✅ Completed Tasks:\n")
		sb.WriteString(bulletList(pie.Map(completed, func(t Task) string { return t.Text })))
	}

	return strings.TrimSpace(sb.String())
}

func bulletList(items []string) string {
	return strings.Join(pie.Map(items, func(item string) string { return "- " + item }), "\n")
}

package workspace

import (
	"context"
	"fmt"
	"slices"
)

func (s *Service) AddDecisionOption(ctx context.Context, option string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.decisionOptions, option) {
		return fmt.Sprintf("🤔 The option \"%s\" is already on the list.", option), nil
	}

	options := append(slices.Clone(s.decisionOptions), option)
	if err := s.save(ctx, keyDecisionOptions, options); err != nil {
		return "", err
	}
	s.decisionOptions = options

	return fmt.Sprintf("✅ Option \"%s\" added.", option), nil
}

// AddDecisionOptions merges options into the list, keeping first occurrences in order.
func (s *Service) AddDecisionOptions(ctx context.Context, options []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := slices.Clone(s.decisionOptions)
	for _, option := range options {
		if !slices.Contains(merged, option) {
			merged = append(merged, option)
		}
	}

	if err := s.save(ctx, keyDecisionOptions, merged); err != nil {
		return "", err
	}
	s.decisionOptions = merged

	return fmt.Sprintf("✅ Added %d new options to the decision maker.", len(options)), nil
}

func (s *Service) ClearDecisionOptions(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, keyDecisionOptions, []string{}); err != nil {
		return "", err
	}
	if err := s.save(ctx, keyDecisionResult, ""); err != nil {
		return "", err
	}

	s.decisionOptions = nil
	s.decisionResult = ""

	return "🗑️ All decision options have been cleared.", nil
}

// MakeDecision picks one of options, or of the stored list when options is empty.
func (s *Service) MakeDecision(ctx context.Context, options []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := options
	if len(candidates) == 0 {
		candidates = s.decisionOptions
	}

	if len(candidates) < 2 {
		return "⚠️ I need at least two options to make a decision.", nil
	}

	choice := candidates[s.pick(len(candidates))]
	if err := s.save(ctx, keyDecisionResult, choice); err != nil {
		return "", err
	}
	s.decisionResult = choice

	return fmt.Sprintf("🎯 After careful consideration, I choose: **%s**", choice), nil
}

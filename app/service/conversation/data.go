package conversation

import (
	"maps"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResult carries the outcome of a requested action together with the call it answers.
type FunctionResult struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Args    map[string]any `json:"args,omitempty"`
	Content string         `json:"content"`
}

// Part is exactly one of Text, FunctionCall or FunctionResult.
type Part struct {
	Text           string          `json:"text,omitempty"`
	FunctionCall   *FunctionCall   `json:"function_call,omitempty"`
	FunctionResult *FunctionResult `json:"function_result,omitempty"`
}

type Turn struct {
	Role  Role      `json:"role"`
	Parts []Part    `json:"parts"`
	At    time.Time `json:"at"`
}

func TextTurn(role Role, text string) Turn {
	return Turn{
		Role:  role,
		Parts: []Part{{Text: text}},
	}
}

func FunctionResultTurn(result FunctionResult) Turn {
	return Turn{
		Role:  RoleUser,
		Parts: []Part{{FunctionResult: &result}},
	}
}

// Text concatenates the text parts of the turn.
func (t Turn) Text() string {
	var result string
	for _, part := range t.Parts {
		result += part.Text
	}

	return result
}

func (t Turn) FunctionResult() *FunctionResult {
	for _, part := range t.Parts {
		if part.FunctionResult != nil {
			return part.FunctionResult
		}
	}

	return nil
}

func (t Turn) clone() Turn {
	parts := make([]Part, len(t.Parts))
	for i, part := range t.Parts {
		parts[i] = Part{Text: part.Text}

		if part.FunctionCall != nil {
			call := *part.FunctionCall
			call.Args = maps.Clone(call.Args)
			parts[i].FunctionCall = &call
		}

		if part.FunctionResult != nil {
			result := *part.FunctionResult
			result.Args = maps.Clone(result.Args)
			parts[i].FunctionResult = &result
		}
	}

	return Turn{
		Role:  t.Role,
		Parts: parts,
		At:    t.At,
	}
}

package registry

import (
	"context"
	"fmt"
)

type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeStringArray FieldType = "string_array"
	TypeObject      FieldType = "object"
)

type FieldSpec struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// ActionSpec describes an operation offered to the model. Parameters keep declaration order.
type ActionSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []FieldSpec `json:"parameters"`
}

func (s ActionSpec) Field(name string) (FieldSpec, bool) {
	for _, field := range s.Parameters {
		if field.Name == name {
			return field, true
		}
	}

	return FieldSpec{}, false
}

func (s ActionSpec) RequiredFields() []string {
	var result []string
	for _, field := range s.Parameters {
		if field.Required {
			result = append(result, field.Name)
		}
	}

	return result
}

type Handler func(ctx context.Context, args Args) (string, error)

type Action struct {
	Spec    ActionSpec
	Handler Handler

	schema *argsSchema
}

// Validate checks raw arguments with the schema resolved at registration.
func (a Action) Validate(raw map[string]any) (Args, error) {
	if a.schema == nil {
		return Validate(a.Spec, raw)
	}

	return a.schema.validate(a.Spec, raw)
}

type ValidationError struct {
	Action string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Action, e.Reason)
	}

	return fmt.Sprintf("%s.%s: %s", e.Action, e.Field, e.Reason)
}

package registry

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/jsonschema-go/jsonschema"
)

// argsSchema is the resolved JSON schema of an action's parameters, plus one
// schema per field used to tell which argument broke the whole.
type argsSchema struct {
	object *jsonschema.Resolved
	fields map[string]*jsonschema.Resolved
}

func fieldSchema(field FieldSpec) *jsonschema.Schema {
	switch field.Type {
	case TypeString:
		return &jsonschema.Schema{Type: "string"}
	case TypeNumber:
		return &jsonschema.Schema{Type: "number"}
	case TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case TypeStringArray:
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	case TypeObject:
		return &jsonschema.Schema{Type: "object"}
	}

	return nil
}

func compileArgs(spec ActionSpec) (*argsSchema, error) {
	object := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(spec.Parameters)),
		Required:   spec.RequiredFields(),
	}

	result := &argsSchema{fields: make(map[string]*jsonschema.Resolved, len(spec.Parameters))}

	for _, field := range spec.Parameters {
		schema := fieldSchema(field)
		if schema == nil {
			return nil, fmt.Errorf("field %q has unsupported type %q", field.Name, field.Type)
		}
		object.Properties[field.Name] = schema

		resolved, err := schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		result.fields[field.Name] = resolved
	}

	resolved, err := object.Resolve(nil)
	if err != nil {
		return nil, err
	}
	result.object = resolved

	return result, nil
}

// Validate checks raw model arguments against the declared fields and returns them
// normalized. Undeclared arguments are dropped and null counts as absent.
func Validate(spec ActionSpec, raw map[string]any) (Args, error) {
	schema, err := compileArgs(spec)
	if err != nil {
		return nil, &ValidationError{Action: spec.Name, Reason: err.Error()}
	}

	return schema.validate(spec, raw)
}

func (s *argsSchema) validate(spec ActionSpec, raw map[string]any) (Args, error) {
	instance := make(map[string]any, len(spec.Parameters))
	for _, field := range spec.Parameters {
		if value, ok := raw[field.Name]; ok && value != nil {
			instance[field.Name] = plain(value)
		}
	}

	if err := s.object.Validate(instance); err != nil {
		return nil, s.explain(spec, instance, err)
	}

	args := make(Args, len(instance))
	for _, field := range spec.Parameters {
		value, ok := instance[field.Name]
		if !ok {
			continue
		}

		normalized, err := normalize(field, value)
		if err != nil {
			return nil, &ValidationError{Action: spec.Name, Field: field.Name, Reason: err.Error()}
		}
		args[field.Name] = normalized
	}

	return args, nil
}

// explain attributes a schema failure to the first offending field.
func (s *argsSchema) explain(spec ActionSpec, instance map[string]any, cause error) error {
	for _, field := range spec.Parameters {
		value, ok := instance[field.Name]
		if !ok {
			if field.Required {
				return &ValidationError{Action: spec.Name, Field: field.Name, Reason: "is required"}
			}
			continue
		}

		if err := s.fields[field.Name].Validate(value); err != nil {
			return &ValidationError{
				Action: spec.Name,
				Field:  field.Name,
				Reason: fmt.Sprintf("must be %s, got %s", typeName(field.Type), jsonTypeOf(value)),
			}
		}
	}

	return &ValidationError{Action: spec.Name, Reason: cause.Error()}
}

// plain converts decoded argument values to the JSON shapes the schema validator expects.
func plain(value any) any {
	switch v := value.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case []string:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return items
	}

	return value
}

func normalize(field FieldSpec, value any) (any, error) {
	switch field.Type {
	case TypeNumber:
		number, _ := value.(float64)
		if math.IsNaN(number) || math.IsInf(number, 0) {
			return nil, fmt.Errorf("must be a finite number")
		}
		return number, nil

	case TypeStringArray:
		items, _ := value.([]any)
		result := make([]string, 0, len(items))
		for _, item := range items {
			str, _ := item.(string)
			result = append(result, str)
		}
		return result, nil
	}

	return value, nil
}

func typeName(t FieldType) string {
	switch t {
	case TypeString:
		return "a string"
	case TypeNumber:
		return "a number"
	case TypeBoolean:
		return "a boolean"
	case TypeStringArray:
		return "an array of strings"
	case TypeObject:
		return "an object"
	}

	return string(t)
}

func jsonTypeOf(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}

	return fmt.Sprintf("%T", value)
}

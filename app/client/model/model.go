package model

import (
	"context"
	"errors"
	"strings"

	"maven/app/service/conversation"
	"maven/app/service/registry"
)

var ErrEmptyReply = errors.New("the AI returned an empty response")

// Client is a stateless model service. Implementations must be safe for
// concurrent and nested use.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Reply, error)
}

type Request struct {
	SystemInstruction string
	Turns             []conversation.Turn
	Tools             []registry.ActionSpec
	// ResponseSchema switches the reply to JSON matching the schema.
	ResponseSchema *Schema
	Temperature    *float32
}

type Reply struct {
	Text  string
	Calls []conversation.FunctionCall
}

func (r *Reply) FirstCall() (conversation.FunctionCall, bool) {
	if r == nil || len(r.Calls) == 0 {
		return conversation.FunctionCall{}, false
	}

	return r.Calls[0], true
}

type SchemaType string

const (
	SchemaString  SchemaType = "string"
	SchemaNumber  SchemaType = "number"
	SchemaBoolean SchemaType = "boolean"
	SchemaArray   SchemaType = "array"
	SchemaObject  SchemaType = "object"
)

type Property struct {
	Name   string
	Schema *Schema
}

// Schema is the provider-neutral subset of JSON schema used for tools and JSON replies.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  []Property
	Required    []string
	Items       *Schema
}

// FieldsSchema builds the object schema of an action's parameters.
func FieldsSchema(fields []registry.FieldSpec) *Schema {
	result := &Schema{Type: SchemaObject}

	for _, field := range fields {
		prop := &Schema{Description: field.Description}

		switch field.Type {
		case registry.TypeString:
			prop.Type = SchemaString
		case registry.TypeNumber:
			prop.Type = SchemaNumber
		case registry.TypeBoolean:
			prop.Type = SchemaBoolean
		case registry.TypeStringArray:
			prop.Type = SchemaArray
			prop.Items = &Schema{Type: SchemaString}
		case registry.TypeObject:
			prop.Type = SchemaObject
		}

		result.Properties = append(result.Properties, Property{Name: field.Name, Schema: prop})
		if field.Required {
			result.Required = append(result.Required, field.Name)
		}
	}

	return result
}

// JSONSchema renders the schema as a plain JSON-schema map.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}

	result := map[string]any{
		"type": string(s.Type),
	}
	if s.Description != "" {
		result["description"] = s.Description
	}

	if s.Type == SchemaObject {
		props := make(map[string]any, len(s.Properties))
		for _, prop := range s.Properties {
			props[prop.Name] = prop.Schema.JSONSchema()
		}
		result["properties"] = props

		if len(s.Required) > 0 {
			result["required"] = append([]string(nil), s.Required...)
		}
	}

	if s.Items != nil {
		result["items"] = s.Items.JSONSchema()
	}

	return result
}

// Prompt runs a single-turn text generation without tools.
func Prompt(ctx context.Context, client Client, prompt string) (string, error) {
	reply, err := client.Generate(ctx, &Request{
		Turns: []conversation.Turn{conversation.TextTurn(conversation.RoleUser, prompt)},
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(reply.Text)
	if text == "" {
		return "", ErrEmptyReply
	}

	return text, nil
}

// StripFences removes a markdown code fence around a JSON reply.
func StripFences(text string) string {
	result := strings.TrimSpace(text)
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")

	return strings.TrimSpace(result)
}

package gemini

import (
	"context"
	"fmt"

	"maven/app/client/model"
	"maven/app/config"
	"maven/app/service/conversation"
	"maven/app/service/registry"

	"github.com/samber/do"
	"github.com/samber/oops"
	"google.golang.org/genai"
)

var _ model.Client = (*Client)(nil)

type generator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client talks to the Gemini API. It keeps no conversation state.
type Client struct {
	models      generator
	model       string
	temperature *float32
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Model.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, oops.In("gemini").Errorf("failed to create GenAI client: %w", err)
	}

	return newClient(client.Models, cfg.Model.Model, cfg.Model.Temperature), nil
}

func newClient(models generator, modelName string, temperature *float32) *Client {
	return &Client{
		models:      models,
		model:       modelName,
		temperature: temperature,
	}
}

func (c *Client) Generate(ctx context.Context, req *model.Request) (*model.Reply, error) {
	contents := toContents(req.Turns)
	if len(contents) == 0 {
		return nil, oops.In("gemini").Errorf("no contents to send")
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, c.buildConfig(req))
	if err != nil {
		return nil, oops.In("gemini").With("model", c.model).Wrapf(err, "generate content")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, oops.In("gemini").Errorf("request was blocked by the API. Reason: %s", resp.PromptFeedback.BlockReason)
	}

	reply := &model.Reply{
		Text: resp.Text(),
	}

	for _, call := range resp.FunctionCalls() {
		if call == nil {
			continue
		}

		reply.Calls = append(reply.Calls, conversation.FunctionCall{
			ID:   call.ID,
			Name: call.Name,
			Args: call.Args,
		})
	}

	return reply, nil
}

func (c *Client) buildConfig(req *model.Request) *genai.GenerateContentConfig {
	result := &genai.GenerateContentConfig{
		Temperature: c.temperature,
	}

	if req.Temperature != nil {
		result.Temperature = req.Temperature
	}

	if req.SystemInstruction != "" {
		result.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		result.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	if req.ResponseSchema != nil {
		result.ResponseMIMEType = "application/json"
		result.ResponseSchema = toSchema(req.ResponseSchema)
	}

	return result
}

func toDeclarations(specs []registry.ActionSpec) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(specs))

	for _, spec := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
		}

		if len(spec.Parameters) > 0 {
			decl.Parameters = toSchema(model.FieldsSchema(spec.Parameters))
		}

		result = append(result, decl)
	}

	return result
}

func toSchema(schema *model.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{
		Type:        toType(schema.Type),
		Description: schema.Description,
		Items:       toSchema(schema.Items),
	}

	if len(schema.Required) > 0 {
		result.Required = append([]string(nil), schema.Required...)
	}

	if len(schema.Properties) > 0 {
		result.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for _, prop := range schema.Properties {
			result.Properties[prop.Name] = toSchema(prop.Schema)
			result.PropertyOrdering = append(result.PropertyOrdering, prop.Name)
		}
	}

	return result
}

func toType(t model.SchemaType) genai.Type {
	switch t {
	case model.SchemaString:
		return genai.TypeString
	case model.SchemaNumber:
		return genai.TypeNumber
	case model.SchemaBoolean:
		return genai.TypeBoolean
	case model.SchemaArray:
		return genai.TypeArray
	case model.SchemaObject:
		return genai.TypeObject
	}

	panic(fmt.Sprintf("gemini: unknown schema type %q", t))
}

// toContents maps the transcript onto Gemini contents. A function result turn
// becomes the model's functionCall followed by the user's functionResponse.
// Consecutive contents of the same role are merged since Gemini expects alternation.
func toContents(turns []conversation.Turn) []*genai.Content {
	var result []*genai.Content

	add := func(role string, part *genai.Part) {
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Parts = append(result[n-1].Parts, part)
			return
		}

		result = append(result, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}

	for _, turn := range turns {
		role := string(genai.RoleUser)
		if turn.Role == conversation.RoleModel {
			role = string(genai.RoleModel)
		}

		for _, part := range turn.Parts {
			switch {
			case part.FunctionResult != nil:
				res := part.FunctionResult
				add(string(genai.RoleModel), &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   res.ID,
					Name: res.Name,
					Args: res.Args,
				}})
				add(string(genai.RoleUser), &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       res.ID,
					Name:     res.Name,
					Response: map[string]any{"content": res.Content},
				}})

			case part.FunctionCall != nil:
				add(string(genai.RoleModel), &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}})

			case part.Text != "":
				add(role, &genai.Part{Text: part.Text})
			}
		}
	}

	return result
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"maven/app/client/model"
	"maven/app/config"
	"maven/app/service/conversation"
	"maven/app/service/registry"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

var _ model.Client = (*Client)(nil)

// Client talks to any OpenAI-compatible API through langchaingo.
type Client struct {
	llm         llms.Model
	temperature *float32
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.Model.APIKey),
		lcopenai.WithModel(cfg.Model.Model),
		lcopenai.WithHTTPClient(&http.Client{
			Timeout: cfg.Model.RequestTimeout,
		}),
		lcopenai.WithCallback(LogCallbackHandler{}),
	}
	if cfg.Model.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.Model.BaseURL))
	}

	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, oops.In("openai").Errorf("failed to create openai client: %w", err)
	}

	return newClient(llm, cfg.Model.Temperature), nil
}

func newClient(llm llms.Model, temperature *float32) *Client {
	return &Client{
		llm:         llm,
		temperature: temperature,
	}
}

func (c *Client) Generate(ctx context.Context, req *model.Request) (*model.Reply, error) {
	messages := toMessages(req.SystemInstruction, req.Turns)

	var options []llms.CallOption

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = req.Temperature
	}
	if temperature != nil {
		options = append(options, llms.WithTemperature(float64(*temperature)))
	}

	if len(req.Tools) > 0 {
		options = append(options, llms.WithTools(toTools(req.Tools)))
	}

	if req.ResponseSchema != nil {
		options = append(options, llms.WithJSONMode())
	}

	resp, err := c.llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, oops.In("openai").Wrapf(err, "generate content")
	}

	if len(resp.Choices) == 0 {
		return nil, oops.In("openai").Errorf("no chat completion found")
	}

	choice := resp.Choices[0]
	reply := &model.Reply{
		Text: choice.Content,
	}

	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}

		var args map[string]any
		if call.FunctionCall.Arguments != "" {
			if err = json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
				return nil, oops.In("openai").
					With("tool", call.FunctionCall.Name).
					Wrapf(err, "failed to unmarshal tool arguments")
			}
		}

		reply.Calls = append(reply.Calls, conversation.FunctionCall{
			ID:   call.ID,
			Name: call.FunctionCall.Name,
			Args: args,
		})
	}

	return reply, nil
}

func toTools(specs []registry.ActionSpec) []llms.Tool {
	result := make([]llms.Tool, 0, len(specs))

	for _, spec := range specs {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  model.FieldsSchema(spec.Parameters).JSONSchema(),
			},
		})
	}

	return result
}

// toMessages maps the transcript onto chat messages. A function result turn
// becomes an assistant tool call followed by the tool response.
func toMessages(system string, turns []conversation.Turn) []llms.MessageContent {
	var result []llms.MessageContent

	if system != "" {
		result = append(result, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}

	for i, turn := range turns {
		for _, part := range turn.Parts {
			switch {
			case part.FunctionResult != nil:
				res := part.FunctionResult
				id := res.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", i)
				}

				arguments, _ := json.Marshal(res.Args)

				result = append(result,
					llms.MessageContent{
						Role: llms.ChatMessageTypeAI,
						Parts: []llms.ContentPart{llms.ToolCall{
							ID:   id,
							Type: "function",
							FunctionCall: &llms.FunctionCall{
								Name:      res.Name,
								Arguments: string(arguments),
							},
						}},
					},
					llms.MessageContent{
						Role: llms.ChatMessageTypeTool,
						Parts: []llms.ContentPart{llms.ToolCallResponse{
							ToolCallID: id,
							Name:       res.Name,
							Content:    res.Content,
						}},
					},
				)

			case part.Text != "":
				role := llms.ChatMessageTypeHuman
				if turn.Role == conversation.RoleModel {
					role = llms.ChatMessageTypeAI
				}
				result = append(result, llms.TextParts(role, part.Text))
			}
		}
	}

	return result
}

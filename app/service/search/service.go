package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"maven/app/client/model"
	"maven/app/service/conversation"
	"maven/app/service/workspace"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const promptTemplate = `You are a highly intelligent search assistant for a user's personal knowledge base. Your task is to answer the user's query based *only* on the provided content from their notes.

Here is the user's entire knowledge base, provided as a JSON array of notes:
--- KNOWLEDGE BASE START ---
%s
--- KNOWLEDGE BASE END ---

Here is the user's query:
--- QUERY START ---
%s
--- QUERY END ---

Your response MUST be in a strict JSON format. Do not add any text before or after the JSON block. Analyze the knowledge base, find the most relevant information to the query, generate a summary, and identify up to 3 of the most relevant source notes.`

var responseSchema = &model.Schema{
	Type: model.SchemaObject,
	Properties: []model.Property{
		{Name: "summary", Schema: &model.Schema{
			Type:        model.SchemaString,
			Description: "A concise, synthesized answer to the user's query, based on the information found. If no relevant information is found, state that clearly.",
		}},
		{Name: "source_notes", Schema: &model.Schema{Type: model.SchemaArray, Items: &model.Schema{
			Type: model.SchemaObject,
			Properties: []model.Property{
				{Name: "id", Schema: &model.Schema{Type: model.SchemaString, Description: "The ID of the source note."}},
				{Name: "title", Schema: &model.Schema{Type: model.SchemaString, Description: "The title of the source note."}},
				{Name: "relevance_score", Schema: &model.Schema{Type: model.SchemaNumber, Description: "A number between 0 and 1 indicating relevance."}},
				{Name: "snippet", Schema: &model.Schema{Type: model.SchemaString, Description: "A short, relevant excerpt from the note that supports the summary."}},
			},
			Required: []string{"id"},
		}}},
	},
	Required: []string{"summary"},
}

// Pages is the source of the knowledge base.
type Pages interface {
	Snapshot() workspace.Snapshot
}

type Service struct {
	client   model.Client
	pages    Pages
	validate *validator.Validate
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[model.Client](di),
		do.MustInvoke[*workspace.Service](di),
	), nil
}

func NewService(client model.Client, pages Pages) *Service {
	return &Service{
		client:   client,
		pages:    pages,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Search answers query from the notes only. A reply that does not match the
// result shape, or cites a note that does not exist, yields ErrMalformed.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	pages := s.pages.Snapshot().Pages
	kb, err := json.Marshal(pie.Map(pages, func(p workspace.Page) note {
		return note{ID: p.ID, Title: p.Title, Content: plainText(p.Content)}
	}))
	if err != nil {
		return nil, oops.In("search").Wrapf(err, "failed to encode knowledge base")
	}

	res, err := s.client.Generate(ctx, &model.Request{
		Turns: []conversation.Turn{
			conversation.TextTurn(conversation.RoleUser, fmt.Sprintf(promptTemplate, kb, query)),
		},
		ResponseSchema: responseSchema,
	})
	if err != nil {
		return nil, oops.In("search").Wrapf(err, "search request failed")
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, model.ErrEmptyReply)
	}

	titles := make(map[string]string, len(pages))
	for _, p := range pages {
		titles[p.ID] = p.Title
	}

	result, err := s.parse(res.Text, titles)
	if err != nil {
		slog.Warn("Search reply rejected",
			"error", err,
			"reply", res.Text,
		)
		return nil, err
	}

	slog.Info("Knowledge base searched",
		"pages", len(pages),
		"sources", len(result.SourceNotes),
	)

	return result, nil
}

// parse decodes the reply strictly. Source titles are taken from the notes themselves.
func (s *Service) parse(text string, titles map[string]string) (*Result, error) {
	body := model.StripFences(text)
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var result Result
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformed)
	}

	result.Summary = strings.TrimSpace(result.Summary)
	for i := range result.SourceNotes {
		result.SourceNotes[i].ID = strings.TrimSpace(result.SourceNotes[i].ID)
		result.SourceNotes[i].Snippet = strings.TrimSpace(result.SourceNotes[i].Snippet)
	}

	if err := s.validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i, source := range result.SourceNotes {
		title, ok := titles[source.ID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown note %q", ErrMalformed, source.ID)
		}
		result.SourceNotes[i].Title = title
	}

	if result.SourceNotes == nil {
		result.SourceNotes = []SourceNote{}
	}

	return &result, nil
}

package search

import "errors"

var (
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrMalformed means the model reply did not match the result shape.
	ErrMalformed = errors.New("malformed search result")
)

// FailureMessage is shown to the user for any failed search.
const FailureMessage = "Sorry, I couldn't process that search. The AI might be unavailable or the request was invalid."

// Result is the synthesized answer and the notes it was drawn from.
type Result struct {
	Summary     string       `json:"summary" validate:"required"`
	SourceNotes []SourceNote `json:"source_notes" validate:"max=3,dive"`
}

type SourceNote struct {
	ID             string  `json:"id" validate:"required"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score" validate:"gte=0,lte=1"`
	Snippet        string  `json:"snippet"`
}

// note is one entry of the knowledge base sent to the model.
type note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

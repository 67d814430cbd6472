package gemini

import (
	"context"

	"google.golang.org/genai"
)

// promptData represents the data passed to the prompt template.
type promptData struct {
	// ChunkText is the (possibly truncated) source text to generate
	// questions from.
	ChunkText string

	// QuestionCount is how many questions the model is asked to produce.
	QuestionCount int
}

// modelCaller is the slice of the genai client this package uses.
// genai.Client.Models satisfies it; tests substitute a mock.
type modelCaller interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

package generation

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizforge/qbank-api/internal/domain"
)

// Generator defines the interface for generating questions from a chunk
// of document text. This interface serves as a boundary between the
// application core and external AI/LLM services.
type Generator interface {
	// GenerateQuestions creates questions for the given chunk text,
	// attributing them to the bank and chunk index provided. It returns
	// the accepted questions, or an error (see errors.go) once all
	// retries are exhausted with zero output.
	GenerateQuestions(
		ctx context.Context,
		bankID uuid.UUID,
		chunkText string,
		chunkIndex int,
		desiredCount int,
	) ([]*domain.Question, error)
}
